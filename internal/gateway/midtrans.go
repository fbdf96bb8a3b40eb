package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/kennrick69/locacar/internal/dinheiro"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Midtrans usa a Core API para QR (Pix/QRIS) e consulta de status, e o Snap
// para o checkout de cartão.
type Midtrans struct {
	core coreapi.Client
	snap snap.Client
}

func NewMidtrans(serverKey string, producao bool) *Midtrans {
	env := midtrans.Sandbox
	if producao {
		env = midtrans.Production
	}
	m := &Midtrans{}
	m.core.New(serverKey, env)
	m.snap.New(serverKey, env)
	return m
}

func (m *Midtrans) Nome() string { return "midtrans" }
func (m *Midtrans) Simulado() bool { return false }

func customer(p Pagador) *midtrans.CustomerDetails {
	return &midtrans.CustomerDetails{FName: p.Nome, Email: p.Email}
}

func (m *Midtrans) CriarPix(_ context.Context, p PedidoPix) (Pix, error) {
	req := pedidoQris(p)
	resp, mErr := m.core.ChargeTransaction(req)
	if mErr != nil {
		return Pix{}, mErr
	}
	qr := ""
	for _, a := range resp.Actions {
		if a.Name == "generate-qr-code" {
			qr = a.URL
			break
		}
	}
	if qr == "" {
		return Pix{}, fmt.Errorf("resposta sem QR code (status %s)", resp.StatusCode)
	}
	return Pix{ExternalID: p.Referencia, QRCode: qr}, nil
}

func (m *Midtrans) CriarCheckout(_ context.Context, p PedidoCheckout) (Checkout, error) {
	req := pedidoSnap(p)
	resp, mErr := m.snap.CreateTransaction(req)
	if mErr != nil {
		return Checkout{}, mErr
	}
	return Checkout{ExternalID: p.Referencia, CheckoutRef: resp.Token, URL: resp.RedirectURL}, nil
}

func (m *Midtrans) Consultar(_ context.Context, externalID string) (Resultado, error) {
	resp, mErr := m.core.CheckTransaction(externalID)
	if mErr != nil {
		return Resultado{}, mErr
	}
	raw := resp.TransactionStatus
	// captura com análise de fraude pendente ainda não é dinheiro confirmado
	if raw == "capture" && strings.EqualFold(resp.FraudStatus, "challenge") {
		return Resultado{Status: Pendente, Raw: raw}, nil
	}
	return Mapear(raw), nil
}

// pedidoQris monta a cobrança QR da Core API. A Midtrans recebe o valor em
// unidades inteiras da moeda, sem centavos.
func pedidoQris(p PedidoPix) *coreapi.ChargeReq {
	expira := p.ExpiraMinutos
	if expira <= 0 {
		expira = 30
	}
	valor := dinheiro.Inteiro(p.Valor)
	return &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeQris,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.Referencia,
			GrossAmt: valor,
		},
		CustomerDetails: customer(p.Pagador),
		Items: &[]midtrans.ItemDetails{{
			ID:    p.Referencia,
			Name:  truncar(p.Descricao, 50),
			Price: valor,
			Qty:   1,
		}},
		CustomExpiry: &coreapi.CustomExpiry{
			ExpiryDuration: expira,
			Unit:           "minute",
		},
	}
}

func pedidoSnap(p PedidoCheckout) *snap.Request {
	expira := int64(p.ExpiraHoras)
	if expira <= 0 {
		expira = 24
	}
	valor := dinheiro.Inteiro(p.Valor)
	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.Referencia,
			GrossAmt: valor,
		},
		CustomerDetail: customer(p.Pagador),
		CreditCard:     &snap.CreditCardDetails{Secure: true},
		Items: &[]midtrans.ItemDetails{{
			ID:    p.Referencia,
			Name:  truncar(p.Descricao, 50),
			Price: valor,
			Qty:   1,
		}},
		Expiry:       &snap.ExpiryDetails{Unit: "hour", Duration: expira},
		CustomField1: fmt.Sprintf("parcelas=%d", p.Parcelas),
	}
}

func truncar(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
