package cobranca

import (
	"time"

	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/shopspring/decimal"
)

// Recalcular aplica ValorFinal = max(0, base − descontos + crédito + acréscimos + multa),
// com a multa fora da conta enquanto estiver diferida.
func Recalcular(c *CobrancaSemanal) {
	multa := c.Multa
	if c.MultaDiferida {
		multa = decimal.Zero
	}
	total := c.ValorBase.
		Sub(c.DescontosAprovados).
		Add(c.CreditoAnterior).
		Add(c.Acrescimos).
		Add(multa)
	c.ValorFinal = dinheiro.NaoNegativo(dinheiro.Arredondar(total))
}

// CalcularMulta devolve a multa devida em asOf, sem alterar a cobrança.
func CalcularMulta(c CobrancaSemanal, p politica.Politica, asOf time.Time) decimal.Decimal {
	atraso := DiasEntre(c.SemanaReferencia, asOf)
	if atraso <= p.DiasCarencia() {
		return decimal.Zero
	}
	dias := decimal.NewFromInt(int64(atraso - p.DiasCarencia()))
	switch p.MultaTipo() {
	case politica.MultaFixa:
		return dinheiro.Arredondar(p.MultaValor().Mul(dias))
	default:
		return dinheiro.Arredondar(dinheiro.Percentual(c.ValorBase, p.MultaValor()).Mul(dias))
	}
}

// Avaliar atualiza multa e ValorFinal de uma cobrança em aberto. Devolve true se algo mudou.
// Cobrança paga, ou com multa diferida já quitada, não é tocada.
func Avaliar(c *CobrancaSemanal, p politica.Politica, asOf time.Time) bool {
	if c.Paga || c.MultaQuitada {
		return false
	}
	antes := *c
	c.Multa = CalcularMulta(*c, p, asOf)
	c.MultaDiferida = p.MultaDiferida() && c.Multa.IsPositive()
	Recalcular(c)
	return !antes.Multa.Equal(c.Multa) || antes.MultaDiferida != c.MultaDiferida || !antes.ValorFinal.Equal(c.ValorFinal)
}

// MultaPendente é a multa diferida ainda não quitada.
func (c CobrancaSemanal) MultaPendente() decimal.Decimal {
	if !c.MultaDiferida || c.MultaQuitada {
		return decimal.Zero
	}
	return c.Multa
}
