package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
)

func TestAssinatura(t *testing.T) {
	sig := Assinar("segredo", "ext-1", "req-9", "1700000000")
	header := "ts=1700000000,v1=" + sig

	if !Verificar("segredo", header, "ext-1", "req-9") {
		t.Fatal("valid signature rejected")
	}
	if Verificar("segredo", header, "ext-2", "req-9") {
		t.Error("signature for another id accepted")
	}
	if Verificar("outro", header, "ext-1", "req-9") {
		t.Error("signature with another secret accepted")
	}
	if Verificar("segredo", "v1="+sig, "ext-1", "req-9") {
		t.Error("header without ts accepted")
	}
}

func TestLerNotificacao(t *testing.T) {
	cases := []struct {
		nome   string
		corpo  string
		url    string
		id     string
		status string
	}{
		{"data.id numérico", `{"type":"payment","action":"payment.updated","data":{"id":12345}}`, "/webhook/gateway", "12345", "payment.updated"},
		{"data.id texto", `{"type":"payment","data":{"id":"LC-1"}}`, "/webhook/gateway", "LC-1", ""},
		{"order_id", `{"order_id":"LC-2","transaction_status":"settlement"}`, "/webhook/gateway", "LC-2", "settlement"},
		{"externalId", `{"externalId":"LC-3","status":"paid"}`, "/webhook/gateway", "LC-3", "paid"},
		{"query string", ``, "/webhook/gateway?data.id=LC-4&type=payment", "LC-4", ""},
	}
	for _, c := range cases {
		t.Run(c.nome, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, c.url, nil)
			got := lerNotificacao([]byte(c.corpo), r)
			if got.externalID != c.id || got.status != c.status {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func (a *ambiente) handler(segredo string) (*Handler, *Worker) {
	w := NewWorker(a.db, a.rec, a.sim, 16, a.log)
	w.Espera = time.Millisecond
	return NewHandler(a.db, w, a.rec, segredo, a.log), w
}

func (a *ambiente) ultimoEvento(t *testing.T) *EventoGateway {
	t.Helper()
	var e EventoGateway
	if err := a.db.Order("id DESC").First(&e).Error; err != nil {
		t.Fatal(err)
	}
	return &e
}

func TestReceberEProcessar(t *testing.T) {
	a := novoAmbiente(t, false)
	m := a.motorista(t, motorista.StatusAprovado, false)
	pg := a.intencao(t, pagamento.TipoCaucao, m.ID, nil)
	a.sim.Definir(pg.ExternalID, "approved")
	h, w := a.handler("")

	req := httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(`{"type":"payment","data":{"id":"`+pg.ExternalID+`"}}`))
	rr := httptest.NewRecorder()
	h.Receber(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	e := a.ultimoEvento(t)
	if e.ExternalID != pg.ExternalID || e.Status != EventoRecebido || len(e.Payload) == 0 {
		t.Fatalf("event = %+v", e)
	}

	w.Iniciar(context.Background(), 2)
	w.Parar()

	e = a.ultimoEvento(t)
	if e.Status != EventoProcessado || e.PagamentoID == nil || *e.PagamentoID != pg.ID {
		t.Fatalf("event after worker = %+v", e)
	}
	if got := a.buscarPagamento(t, pg.ID); got.Status != pagamento.StatusPago {
		t.Errorf("payment = %s", got.Status)
	}
	if !a.buscarMotorista(t, m.ID).CaucaoPaga {
		t.Error("deposit not flagged")
	}
}

func TestReceberIDDesconhecidoViraPendencia(t *testing.T) {
	a := novoAmbiente(t, false)
	h, w := a.handler("")

	req := httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(`{"externalId":"fantasma","status":"paid"}`))
	rr := httptest.NewRecorder()
	h.Receber(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	e := a.ultimoEvento(t)
	a.sim.Definir("fantasma", "approved")
	if _, err := w.Processar(a.ctx, e.ID); !erros.IsReconciliation(err) {
		t.Fatalf("expected reconciliation error, got %v", err)
	}
	if e = a.ultimoEvento(t); e.Status != EventoRevisao {
		t.Fatalf("event status = %s, want revisao", e.Status)
	}
	if n, err := w.Reprocessar(a.ctx); err != nil || n != 0 {
		t.Errorf("events under review must not be requeued: n=%d err=%v", n, err)
	}

	rr = httptest.NewRecorder()
	h.Pendencias(rr, httptest.NewRequest(http.MethodGet, "/webhook/pendencias", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "fantasma") {
		t.Errorf("pendencias = %d %s", rr.Code, rr.Body.String())
	}
}

func TestReceberAssinaturaDivergenteAindaResponde200(t *testing.T) {
	a := novoAmbiente(t, false)
	h, _ := a.handler("segredo")

	req := httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(`{"externalId":"LC-9","status":"paid"}`))
	req.Header.Set("x-request-id", "req-1")
	req.Header.Set("x-signature", "ts=1,v1=deadbeef")
	rr := httptest.NewRecorder()
	h.Receber(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if e := a.ultimoEvento(t); e.AssinaturaValida {
		t.Error("bad signature marked valid")
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(`{"externalId":"LC-9","status":"paid"}`))
	req.Header.Set("x-request-id", "req-2")
	req.Header.Set("x-signature", "ts=2,v1="+Assinar("segredo", "LC-9", "req-2", "2"))
	h.Receber(httptest.NewRecorder(), req)
	if e := a.ultimoEvento(t); !e.AssinaturaValida {
		t.Error("good signature marked invalid")
	}
}

func TestReceberSemIdentificador(t *testing.T) {
	a := novoAmbiente(t, false)
	h, _ := a.handler("")

	rr := httptest.NewRecorder()
	h.Receber(rr, httptest.NewRequest(http.MethodPost, "/webhook/gateway", strings.NewReader(`not json`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if e := a.ultimoEvento(t); e.Status != EventoIgnorado {
		t.Errorf("event status = %s", e.Status)
	}
}

func TestWorkerFalhaDoGateway(t *testing.T) {
	a := novoAmbiente(t, false)
	m := a.motorista(t, motorista.StatusAprovado, false)
	pg := a.intencao(t, pagamento.TipoCaucao, m.ID, nil)
	h, w := a.handler("")

	h.Receber(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/webhook/gateway",
		strings.NewReader(`{"externalId":"`+pg.ExternalID+`"}`)))
	e := a.ultimoEvento(t)

	a.sim.Falha = errors.New("timeout")
	if _, err := w.Processar(a.ctx, e.ID); !erros.IsGateway(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	e = a.ultimoEvento(t)
	if e.Status != EventoErro || e.Tentativas != 1 {
		t.Errorf("event = %+v", e)
	}
	if got := a.buscarPagamento(t, pg.ID); got.Status != pagamento.StatusPendente {
		t.Errorf("payment must stay pending, got %s", got.Status)
	}

	a.sim.Falha = nil
	a.sim.Definir(pg.ExternalID, "settlement")
	if _, err := w.Processar(a.ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if got := a.buscarPagamento(t, pg.ID); got.Status != pagamento.StatusPago {
		t.Errorf("payment after retry = %s", got.Status)
	}
}
