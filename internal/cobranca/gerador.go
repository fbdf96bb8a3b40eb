package cobranca

import (
	"time"

	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/shopspring/decimal"
)

const diasSemana = 7

// Periodo é uma semana planejada, ainda não persistida.
type Periodo struct {
	Referencia   time.Time
	Valor        decimal.Decimal
	Dias         int
	Proporcional bool
}

// PlanejarSemanas calcula os períodos de inicio até ate (inclusive).
//
// O primeiro período começa em inicio. Se inicio cair no dia de cobrança a
// semana é cheia; senão é proporcional a 7 menos os dias que faltam até o dia
// de cobrança (início 2 dias antes → 5/7). Os seguintes caem em cada dia de
// cobrança posterior, com o valor cheio.
func PlanejarSemanas(inicio time.Time, dia time.Weekday, base decimal.Decimal, ate time.Time) []Periodo {
	inicio = Dia(inicio, time.UTC)
	ate = Dia(ate, time.UTC)
	if ate.Before(inicio) {
		return nil
	}

	faltam := (int(dia) - int(inicio.Weekday()) + diasSemana) % diasSemana
	primeiro := Periodo{Referencia: inicio, Valor: base, Dias: diasSemana}
	proximo := inicio.AddDate(0, 0, diasSemana)
	if faltam != 0 {
		primeiro.Dias = diasSemana - faltam
		primeiro.Proporcional = true
		primeiro.Valor = dinheiro.Arredondar(base.Mul(decimal.NewFromInt(int64(primeiro.Dias))).Div(decimal.NewFromInt(diasSemana)))
		proximo = inicio.AddDate(0, 0, faltam)
	}

	out := []Periodo{primeiro}
	for !proximo.After(ate) {
		out = append(out, Periodo{Referencia: proximo, Valor: base, Dias: diasSemana})
		proximo = proximo.AddDate(0, 0, diasSemana)
	}
	return out
}
