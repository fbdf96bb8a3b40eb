package motorista

import (
	"context"
	"sync"
	"testing"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/kennrick69/locacar/internal/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func novoService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NovoDB(t, &Motorista{})
	s := NewService(db, politica.MustNova(politica.Padrao()), logger.New(logger.LevelError))
	s.Agora = (&testutil.Relogio{T: agora}).Agora
	return s
}

func TestRegistrarEAtivar(t *testing.T) {
	s := novoService(t)
	ctx := context.Background()

	m, err := s.Registrar(ctx, NovoMotorista{UserID: 1, Nome: "Ana"})
	if err != nil {
		t.Fatalf("Registrar: %v", err)
	}
	if m.Status != StatusPendente || m.DiaCobranca != s.Politica.DiaCobranca() {
		t.Fatalf("unexpected: %+v", m)
	}

	for _, ev := range []Evento{EventoEnviarAnalise, EventoAprovar} {
		if _, err := s.Aplicar(ctx, m.ID, ev, ""); err != nil {
			t.Fatalf("%s: %v", ev, err)
		}
	}
	if _, err := s.AtribuirVeiculo(ctx, m.ID, 3, decimal.NewFromInt(300)); err != nil {
		t.Fatalf("AtribuirVeiculo: %v", err)
	}
	if _, err := s.ConfirmarContrato(ctx, m.ID, true); err != nil {
		t.Fatalf("ConfirmarContrato: %v", err)
	}

	// sem caução a ativação falha e nada muda no banco
	if _, err := s.Aplicar(ctx, m.ID, EventoAtivar, ""); !erros.IsTransition(err) {
		t.Fatalf("expected transition error, got %v", err)
	}
	salvo, _ := s.Buscar(ctx, m.ID)
	if salvo.Status != StatusAprovado {
		t.Fatalf("status changed to %s", salvo.Status)
	}

	err = s.Executar(ctx, m.ID, func(tx *gorm.DB, mm *Motorista) error {
		_, err := s.RegistrarCaucao(tx, mm)
		return err
	})
	if err != nil {
		t.Fatalf("RegistrarCaucao: %v", err)
	}
	ativo, err := s.Aplicar(ctx, m.ID, EventoAtivar, "")
	if err != nil || ativo.Status != StatusAtivo {
		t.Fatalf("ativar: %+v %v", ativo, err)
	}
}

func TestAplicarRejeitaEventosAutomaticos(t *testing.T) {
	s := novoService(t)
	m, _ := s.Registrar(context.Background(), NovoMotorista{UserID: 1, Nome: "Bia"})
	if _, err := s.Aplicar(context.Background(), m.ID, EventoRescindir, ""); !erros.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegistrarValidaEntrada(t *testing.T) {
	s := novoService(t)
	if _, err := s.Registrar(context.Background(), NovoMotorista{Nome: ""}); !erros.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecutarSerializaPorMotorista(t *testing.T) {
	s := novoService(t)
	ctx := context.Background()
	m, _ := s.Registrar(ctx, NovoMotorista{UserID: 1, Nome: "Caio"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Executar(ctx, m.ID, func(tx *gorm.DB, mm *Motorista) error {
				mm.ValorSemanal = mm.ValorSemanal.Add(decimal.NewFromInt(1))
				return s.Repository.Salvar(tx, mm)
			})
		}()
	}
	wg.Wait()

	salvo, _ := s.Buscar(ctx, m.ID)
	if !salvo.ValorSemanal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("lost updates: got %s", salvo.ValorSemanal)
	}
	if s.Locks.Len() != 0 {
		t.Errorf("locks leaked: %d", s.Locks.Len())
	}
}

func TestCadastroExterno(t *testing.T) {
	s := novoService(t)
	ctx := context.Background()
	v := uint(1)
	m := &Motorista{UserID: 1, Nome: "Davi", Status: StatusAtivo, CaucaoPaga: true, ContratoConfirmado: true, VeiculoID: &v}
	if err := s.DB.Create(m).Error; err != nil {
		t.Fatal(err)
	}
	pend, err := s.PendentesCadastroExterno(ctx)
	if err != nil || len(pend) != 1 {
		t.Fatalf("pendentes: %v %v", pend, err)
	}
	if err := s.MarcarCadastroExterno(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	pend, _ = s.PendentesCadastroExterno(ctx)
	if len(pend) != 0 {
		t.Fatalf("expected no pending registrations, got %d", len(pend))
	}
}

func TestNaoDesconfirmaContratoEmOperacao(t *testing.T) {
	s := novoService(t)
	v := uint(1)
	m := &Motorista{UserID: 1, Nome: "Eva", Status: StatusAtivo, CaucaoPaga: true, ContratoConfirmado: true, VeiculoID: &v}
	if err := s.DB.Create(m).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := s.ConfirmarContrato(context.Background(), m.ID, false); !erros.IsTransition(err) {
		t.Fatalf("expected transition error, got %v", err)
	}
	salvo, _ := s.Buscar(context.Background(), m.ID)
	if !salvo.ContratoConfirmado {
		t.Fatal("contract flag must stay true")
	}
}
