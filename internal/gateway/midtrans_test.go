package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPedidoQrisEmUnidadesInteiras(t *testing.T) {
	req := pedidoQris(PedidoPix{
		Referencia: "LOC-1-abc",
		Valor:      decimal.RequireFromString("300.00"),
		Descricao:  "Semana 1",
		Pagador:    Pagador{Nome: "Ana", Email: "ana@example.com"},
	})
	if req.TransactionDetails.GrossAmt != 300 {
		t.Errorf("GrossAmt = %d, want 300", req.TransactionDetails.GrossAmt)
	}
	items := *req.Items
	if len(items) != 1 || items[0].Price != 300 || items[0].Qty != 1 {
		t.Errorf("items = %+v", items)
	}
	if req.CustomExpiry == nil || req.CustomExpiry.ExpiryDuration != 30 {
		t.Errorf("default expiry = %+v", req.CustomExpiry)
	}
	if req.TransactionDetails.OrderID != "LOC-1-abc" {
		t.Errorf("OrderID = %s", req.TransactionDetails.OrderID)
	}
}

func TestPedidoSnapEmUnidadesInteiras(t *testing.T) {
	req := pedidoSnap(PedidoCheckout{
		Referencia: "LOC-2-def",
		Valor:      decimal.RequireFromString("1250.40"),
		Parcelas:   3,
		Descricao:  "Parcelamento da semana",
	})
	if req.TransactionDetails.GrossAmt != 1250 {
		t.Errorf("GrossAmt = %d, want 1250", req.TransactionDetails.GrossAmt)
	}
	if items := *req.Items; items[0].Price != req.TransactionDetails.GrossAmt {
		t.Errorf("item price %d differs from gross amount", items[0].Price)
	}
	if req.Expiry.Duration != 24 || req.CustomField1 != "parcelas=3" {
		t.Errorf("expiry %+v, custom field %q", req.Expiry, req.CustomField1)
	}
}
