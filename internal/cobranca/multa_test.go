package cobranca

import (
	"testing"

	"github.com/kennrick69/locacar/internal/politica"
	"github.com/kennrick69/locacar/internal/testutil"
	"github.com/shopspring/decimal"
)

func novaCobranca(base string) CobrancaSemanal {
	c := CobrancaSemanal{SemanaReferencia: testutil.Data(2024, 3, 4), ValorBase: decimal.RequireFromString(base)}
	Recalcular(&c)
	return c
}

func TestMultaPercentualAposCarencia(t *testing.T) {
	pol := politica.MustNova(politica.Padrao()) // carência 3, 2%
	c := novaCobranca("300")

	if !Avaliar(&c, pol, testutil.Data(2024, 3, 9)) {
		t.Fatal("expected a change")
	}
	if !c.Multa.Equal(decimal.NewFromInt(12)) {
		t.Errorf("late fee: got %s, want 12", c.Multa)
	}
	if !c.ValorFinal.Equal(decimal.NewFromInt(312)) {
		t.Errorf("final: got %s, want 312", c.ValorFinal)
	}
}

func TestSemMultaDentroDaCarencia(t *testing.T) {
	pol := politica.MustNova(politica.Padrao())
	c := novaCobranca("300")
	Avaliar(&c, pol, testutil.Data(2024, 3, 7))
	if !c.Multa.IsZero() || !c.ValorFinal.Equal(decimal.NewFromInt(300)) {
		t.Errorf("no fee inside grace: %s %s", c.Multa, c.ValorFinal)
	}
}

func TestMultaFixa(t *testing.T) {
	p := politica.Padrao()
	p.MultaTipo = politica.MultaFixa
	p.MultaValor = decimal.RequireFromString("10.50")
	p.DiasCarencia = 0
	c := novaCobranca("300")
	Avaliar(&c, politica.MustNova(p), testutil.Data(2024, 3, 6))
	if !c.Multa.Equal(decimal.NewFromInt(21)) {
		t.Errorf("fixed fee: got %s", c.Multa)
	}
}

func TestMultaDiferidaNaoAlteraValorFinal(t *testing.T) {
	p := politica.Padrao()
	p.MultaDiferida = true
	c := novaCobranca("300")
	Avaliar(&c, politica.MustNova(p), testutil.Data(2024, 3, 9))
	if !c.Multa.Equal(decimal.NewFromInt(12)) || !c.MultaDiferida {
		t.Fatalf("deferred fee must be tracked: %s %v", c.Multa, c.MultaDiferida)
	}
	if !c.ValorFinal.Equal(decimal.NewFromInt(300)) {
		t.Errorf("final must stay 300, got %s", c.ValorFinal)
	}
	if !c.MultaPendente().Equal(decimal.NewFromInt(12)) {
		t.Errorf("pending fine: %s", c.MultaPendente())
	}
}

func TestAvaliarCobrancaPagaNaoFazNada(t *testing.T) {
	c := novaCobranca("300")
	c.Paga = true
	if Avaliar(&c, politica.MustNova(politica.Padrao()), testutil.Data(2024, 4, 1)) {
		t.Fatal("paid charge must not change")
	}
	if !c.Multa.IsZero() {
		t.Errorf("fee on paid charge: %s", c.Multa)
	}
}

func TestFormulaValorFinal(t *testing.T) {
	cases := []struct {
		base, desc, cred, acr, multa, want string
	}{
		{"300", "0", "0", "0", "0", "300"},
		{"300", "50", "0", "0", "12", "262"},
		{"300", "0", "20", "10", "0", "330"},
		{"100", "150", "0", "0", "0", "0"},
		{"214.29", "0.005", "0", "0", "0", "214.29"},
	}
	for _, tc := range cases {
		c := CobrancaSemanal{
			ValorBase:          decimal.RequireFromString(tc.base),
			DescontosAprovados: decimal.RequireFromString(tc.desc),
			CreditoAnterior:    decimal.RequireFromString(tc.cred),
			Acrescimos:         decimal.RequireFromString(tc.acr),
			Multa:              decimal.RequireFromString(tc.multa),
		}
		Recalcular(&c)
		if !c.ValorFinal.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("%+v: got %s, want %s", tc, c.ValorFinal, tc.want)
		}
	}
}
