package rescisao

import (
	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/shopspring/decimal"
)

// Calcular monta o acerto final: caução − (pendentes + multas + danos + outros).
// O saldo pode ficar negativo.
func Calcular(pendentes, multas, danos, outros, caucao decimal.Decimal) Rescisao {
	r := Rescisao{
		DebitosPendentes: dinheiro.Arredondar(pendentes),
		MultasAcumuladas: dinheiro.Arredondar(multas),
		Danos:            dinheiro.Arredondar(danos),
		OutrosDescontos:  dinheiro.Arredondar(outros),
		ValorCaucao:      dinheiro.Arredondar(caucao),
	}
	debitos := dinheiro.Soma(r.DebitosPendentes, r.MultasAcumuladas, r.Danos, r.OutrosDescontos)
	r.SaldoFinal = dinheiro.Arredondar(r.ValorCaucao.Sub(debitos))
	r.Creditos = decimal.Zero
	return r
}

// Creditar soma ao saldo um valor recebido depois do acerto, referente a um
// débito que o acerto já descontou da caução.
func (r *Rescisao) Creditar(valor decimal.Decimal) {
	v := dinheiro.Arredondar(valor)
	r.Creditos = dinheiro.Arredondar(r.Creditos.Add(v))
	r.SaldoFinal = dinheiro.Arredondar(r.SaldoFinal.Add(v))
}

// Devedor indica que o motorista deve além da caução.
func (r Rescisao) Devedor() bool {
	return r.SaldoFinal.IsNegative()
}
