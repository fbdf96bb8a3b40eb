package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/kennrick69/locacar/internal/rescisao"
	"github.com/kennrick69/locacar/internal/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ambiente struct {
	svc *Service
	sim *Simulado
	rel *testutil.Relogio
	db  *gorm.DB
	ctx context.Context
}

func novoAmbiente(t *testing.T) *ambiente {
	t.Helper()
	db := testutil.NovoDB(t,
		&motorista.Motorista{},
		&cobranca.CobrancaSemanal{}, &cobranca.Desconto{}, &cobranca.Acrescimo{},
		&pagamento.PagamentoManual{}, &pagamento.PagamentoGateway{},
		&rescisao.Rescisao{},
	)
	p := politica.Padrao()
	p.ValorCaucao = decimal.NewFromInt(1000)
	p.AcrescimoParcelas = map[int]decimal.Decimal{2: decimal.RequireFromString("3.5"), 3: decimal.NewFromInt(5)}
	pol := politica.MustNova(p)
	log := logger.New(logger.LevelError)
	rel := &testutil.Relogio{T: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)}

	mot := motorista.NewService(db, pol, log)
	cob := cobranca.NewService(db, mot, pol, log)
	led := pagamento.NewLedger(db, mot, cob, pol, log)
	cob.Liquidacao = led
	sim := NewSimulado()
	svc := NewService(db, sim, mot, cob, led, pol, log)
	for _, f := range []*func() time.Time{&mot.Agora, &cob.Agora, &led.Agora, &svc.Agora} {
		*f = rel.Agora
	}
	return &ambiente{svc: svc, sim: sim, rel: rel, db: db, ctx: context.Background()}
}

func (a *ambiente) motorista(t *testing.T, status motorista.Status, caucao bool) *motorista.Motorista {
	t.Helper()
	v := uint(1)
	m := &motorista.Motorista{UserID: 1, Nome: "M", Status: status, CaucaoPaga: caucao, ContratoConfirmado: true, VeiculoID: &v}
	if err := a.db.Create(m).Error; err != nil {
		t.Fatal(err)
	}
	return m
}

func (a *ambiente) cobranca(t *testing.T, motoristaID uint, base string) *cobranca.CobrancaSemanal {
	t.Helper()
	c := &cobranca.CobrancaSemanal{MotoristaID: motoristaID, SemanaReferencia: testutil.Data(2024, 3, 4), ValorBase: decimal.RequireFromString(base), DiasCobrados: 7}
	cobranca.Recalcular(c)
	if err := a.db.Create(c).Error; err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCaucaoPix(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAprovado, false)

	pg, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: m.ID, Metodo: pagamento.MetodoPix})
	if err != nil {
		t.Fatalf("CriarIntencao: %v", err)
	}
	if !pg.ValorTotal.Equal(decimal.NewFromInt(1000)) || pg.QRCode == "" || !pg.Simulado || pg.Status != pagamento.StatusPendente {
		t.Errorf("unexpected intent: %+v", pg)
	}
	if pg.ExpiraEm == nil || !pg.ExpiraEm.Equal(a.rel.T.Add(30*time.Minute)) {
		t.Errorf("pix must expire in 30 minutes: %v", pg.ExpiraEm)
	}

	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: m.ID, Metodo: pagamento.MetodoPix}); !erros.IsConflict(err) {
		t.Fatalf("second live intent: got %v", err)
	}
}

func TestCaucaoPreCondicoes(t *testing.T) {
	a := novoAmbiente(t)
	pendente := a.motorista(t, motorista.StatusPendente, false)
	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: pendente.ID, Metodo: pagamento.MetodoPix}); !erros.IsTransition(err) {
		t.Errorf("pendente: got %v", err)
	}
	paga := a.motorista(t, motorista.StatusAprovado, true)
	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: paga.ID, Metodo: pagamento.MetodoPix}); !erros.IsConflict(err) {
		t.Errorf("already paid: got %v", err)
	}
}

func TestCartaoParcelado(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAtivo, true)
	c := a.cobranca(t, m.ID, "300")

	pg, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoSemanal, MotoristaID: m.ID, CobrancaID: &c.ID, Metodo: pagamento.MetodoCartao, Parcelas: 3})
	if err != nil {
		t.Fatalf("CriarIntencao: %v", err)
	}
	if !pg.ValorBase.Equal(decimal.NewFromInt(300)) || !pg.ValorTotal.Equal(decimal.NewFromInt(315)) || pg.Parcelas != 3 {
		t.Errorf("card intent: base %s total %s parcelas %d", pg.ValorBase, pg.ValorTotal, pg.Parcelas)
	}
	if pg.CheckoutRef == "" || !pg.ExpiraEm.Equal(a.rel.T.Add(24*time.Hour)) {
		t.Errorf("checkout data: %+v", pg)
	}

	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoSemanal, MotoristaID: m.ID, CobrancaID: &c.ID, Metodo: pagamento.MetodoCartao, Parcelas: 4}); !erros.IsValidation(err) {
		t.Errorf("4x not allowed: got %v", err)
	}
	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoSemanal, MotoristaID: m.ID, CobrancaID: &c.ID, Metodo: pagamento.MetodoPix, Parcelas: 2}); !erros.IsValidation(err) {
		t.Errorf("pix in installments: got %v", err)
	}
}

func TestTotalComAcrescimo(t *testing.T) {
	if got := Total(decimal.NewFromInt(300), decimal.RequireFromString("3.5")); !got.Equal(decimal.RequireFromString("310.5")) {
		t.Errorf("Total = %s", got)
	}
	if got := Total(decimal.RequireFromString("214.29"), decimal.NewFromInt(5)); !got.Equal(decimal.RequireFromString("225")) {
		t.Errorf("Total = %s", got)
	}
}

func TestFalhaDoGatewayNaoGrava(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAprovado, false)
	a.sim.Falha = errors.New("timeout")

	_, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: m.ID, Metodo: pagamento.MetodoPix})
	if !erros.IsGateway(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	var n int64
	a.db.Model(&pagamento.PagamentoGateway{}).Count(&n)
	if n != 0 {
		t.Fatalf("nothing must be persisted, found %d rows", n)
	}
	salvo, _ := a.svc.Motoristas.Buscar(a.ctx, m.ID)
	if salvo.CaucaoPaga {
		t.Fatal("deposit must not be marked paid")
	}
}

func TestRegenerarIntencaoVencida(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAprovado, false)
	antigo, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: m.ID, Metodo: pagamento.MetodoPix})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.svc.Regenerar(a.ctx, antigo.ID); !erros.IsConflict(err) {
		t.Fatalf("live intent must not regenerate: %v", err)
	}

	a.rel.Avancar(31 * time.Minute)
	novo, err := a.svc.Regenerar(a.ctx, antigo.ID)
	if err != nil {
		t.Fatalf("Regenerar: %v", err)
	}
	if novo.ID == antigo.ID || novo.ExternalID == antigo.ExternalID {
		t.Fatal("regenerate must create a fresh intent")
	}
	velho, _ := a.svc.Buscar(a.ctx, antigo.ID)
	if velho.Status != pagamento.StatusExpirado || velho.SubstituidoPorID == nil || *velho.SubstituidoPorID != novo.ID {
		t.Fatalf("old intent: %+v", velho)
	}
	if _, err := a.svc.Regenerar(a.ctx, antigo.ID); !erros.IsConflict(err) {
		t.Fatalf("replaced intent must not regenerate twice: %v", err)
	}
}

func TestExpirarVencidas(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAprovado, false)
	pg, _ := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoCaucao, MotoristaID: m.ID, Metodo: pagamento.MetodoPix})

	if n, _ := a.svc.ExpirarVencidas(a.ctx); n != 0 {
		t.Fatalf("nothing to expire yet, got %d", n)
	}
	a.rel.Avancar(time.Hour)
	n, err := a.svc.ExpirarVencidas(a.ctx)
	if err != nil || n != 1 {
		t.Fatalf("ExpirarVencidas = %d, %v", n, err)
	}
	salvo, _ := a.svc.Buscar(a.ctx, pg.ID)
	if salvo.Status != pagamento.StatusExpirado {
		t.Fatalf("status: %s", salvo.Status)
	}
}

func TestMultaDiferida(t *testing.T) {
	a := novoAmbiente(t)
	m := a.motorista(t, motorista.StatusAtivo, true)
	c := a.cobranca(t, m.ID, "300")
	if _, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoMulta, MotoristaID: m.ID, CobrancaID: &c.ID, Metodo: pagamento.MetodoPix}); !erros.IsConflict(err) {
		t.Fatalf("no deferred fine yet: got %v", err)
	}
	a.db.Model(c).Updates(map[string]any{"multa": decimal.NewFromInt(12), "multa_diferida": true})
	pg, err := a.svc.CriarIntencao(a.ctx, IntencaoInput{Tipo: pagamento.TipoMulta, MotoristaID: m.ID, CobrancaID: &c.ID, Metodo: pagamento.MetodoPix})
	if err != nil || !pg.ValorTotal.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("fine intent: %+v %v", pg, err)
	}
}

func TestParcelamento(t *testing.T) {
	a := novoAmbiente(t)
	ops := a.svc.Parcelamento(decimal.NewFromInt(300))
	if len(ops) != 3 || !ops[2].Total.Equal(decimal.NewFromInt(315)) || !ops[2].ValorParcela.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("options: %+v", ops)
	}
}
