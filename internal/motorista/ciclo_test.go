package motorista

import (
	"testing"
	"time"

	"github.com/kennrick69/locacar/internal/erros"
)

var agora = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func aprovado() Motorista {
	v := uint(9)
	return Motorista{ID: 1, Status: StatusAprovado, VeiculoID: &v, ContratoConfirmado: true}
}

func TestAtivarSemCaucaoFalha(t *testing.T) {
	m := aprovado()
	got, err := Transicionar(m, EventoAtivar, "", agora)
	if !erros.IsTransition(err) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if got.Status != StatusAprovado || m.Status != StatusAprovado {
		t.Errorf("status must stay aprovado, got %s", got.Status)
	}
}

func TestAtivarComPreCondicoes(t *testing.T) {
	m := aprovado()
	if _, err := MarcarCaucaoPaga(&m); err != nil {
		t.Fatalf("MarcarCaucaoPaga: %v", err)
	}
	got, err := Transicionar(m, EventoAtivar, "", agora)
	if err != nil {
		t.Fatalf("ativar: %v", err)
	}
	if got.Status != StatusAtivo || got.DataInicio == nil || !got.DataInicio.Equal(agora) {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestAtivarExigeContratoEVeiculo(t *testing.T) {
	semContrato := aprovado()
	semContrato.CaucaoPaga = true
	semContrato.ContratoConfirmado = false
	if _, err := Transicionar(semContrato, EventoAtivar, "", agora); !erros.IsTransition(err) {
		t.Errorf("no contract: got %v", err)
	}
	semVeiculo := aprovado()
	semVeiculo.CaucaoPaga = true
	semVeiculo.VeiculoID = nil
	if _, err := Transicionar(semVeiculo, EventoAtivar, "", agora); !erros.IsTransition(err) {
		t.Errorf("no vehicle: got %v", err)
	}
}

func TestFluxoCompleto(t *testing.T) {
	m := Motorista{Status: StatusPendente}
	passos := []struct {
		ev   Evento
		want Status
	}{
		{EventoEnviarAnalise, StatusEmAnalise},
		{EventoAprovar, StatusAprovado},
	}
	for _, p := range passos {
		var err error
		m, err = Transicionar(m, p.ev, "", agora)
		if err != nil || m.Status != p.want {
			t.Fatalf("%s: got %s, %v", p.ev, m.Status, err)
		}
	}
	v := uint(1)
	m.VeiculoID = &v
	m.ContratoConfirmado = true
	m.CaucaoPaga = true
	for _, p := range []struct {
		ev   Evento
		want Status
	}{
		{EventoAtivar, StatusAtivo},
		{EventoInadimplir, StatusInadimplente},
		{EventoRegularizar, StatusAtivo},
		{EventoRescindir, StatusRescindido},
		{EventoRecolher, StatusRecolhido},
	} {
		var err error
		m, err = Transicionar(m, p.ev, "", agora)
		if err != nil || m.Status != p.want {
			t.Fatalf("%s: got %s, %v", p.ev, m.Status, err)
		}
	}
	if m.DataRescisao == nil {
		t.Error("rescindir must stamp DataRescisao")
	}
}

func TestReprovarEResetar(t *testing.T) {
	m := Motorista{Status: StatusEmAnalise}
	if _, err := Transicionar(m, EventoReprovar, "", agora); !erros.IsValidation(err) {
		t.Fatalf("reprovar without motivo: got %v", err)
	}
	m, err := Transicionar(m, EventoReprovar, "CNH vencida", agora)
	if err != nil || m.MotivoReprovacao != "CNH vencida" {
		t.Fatalf("reprovar: %+v %v", m, err)
	}
	m, err = Transicionar(m, EventoResetar, "", agora)
	if err != nil || m.Status != StatusPendente || m.MotivoReprovacao != "" {
		t.Fatalf("resetar: %+v %v", m, err)
	}
}

func TestTransicoesInvalidas(t *testing.T) {
	cases := []struct {
		de Status
		ev Evento
	}{
		{StatusPendente, EventoAprovar},
		{StatusAtivo, EventoRegularizar},
		{StatusRescindido, EventoAtivar},
		{StatusAprovado, EventoRescindir},
		{StatusRecolhido, EventoResetar},
	}
	for _, c := range cases {
		if _, err := Transicionar(Motorista{Status: c.de}, c.ev, "x", agora); !erros.IsTransition(err) {
			t.Errorf("%s from %s: got %v", c.ev, c.de, err)
		}
	}
	if _, err := Transicionar(Motorista{Status: StatusPendente}, Evento("voar"), "", agora); !erros.IsValidation(err) {
		t.Errorf("unknown event: got %v", err)
	}
}

func TestCaucaoMonotonica(t *testing.T) {
	m := Motorista{Status: StatusPendente}
	if _, err := MarcarCaucaoPaga(&m); !erros.IsTransition(err) {
		t.Fatalf("deposit on pendente: got %v", err)
	}
	m.Status = StatusAprovado
	mudou, err := MarcarCaucaoPaga(&m)
	if err != nil || !mudou || !m.CaucaoPaga {
		t.Fatalf("first mark: %v %v", mudou, err)
	}
	mudou, err = MarcarCaucaoPaga(&m)
	if err != nil || mudou || !m.CaucaoPaga {
		t.Fatalf("second mark must be a no-op: %v %v", mudou, err)
	}
}

func TestEventoManual(t *testing.T) {
	if !EventoAprovar.Manual() || EventoInadimplir.Manual() || EventoRescindir.Manual() || Evento("x").Manual() {
		t.Error("manual flags wrong")
	}
}
