// Package dinheiro concentra as regras de aritmética monetária (BRL, centavos).
package dinheiro

import "github.com/shopspring/decimal"

// Tolerancia é a folga de arredondamento: um centavo.
var Tolerancia = decimal.New(1, -2)

var cem = decimal.NewFromInt(100)

// Arredondar arredonda para centavos, meio para cima (half away from zero).
func Arredondar(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// NaoNegativo devolve max(0, v).
func NaoNegativo(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// Percentual devolve v × p/100, sem arredondar.
func Percentual(v, p decimal.Decimal) decimal.Decimal {
	return v.Mul(p).Div(cem)
}

// Quitado informa se o saldo está dentro da tolerância.
func Quitado(saldo decimal.Decimal) bool {
	return saldo.LessThanOrEqual(Tolerancia)
}

// Soma soma uma lista de valores.
func Soma(vs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// Centavos converte para inteiro em centavos.
func Centavos(v decimal.Decimal) int64 {
	return Arredondar(v).Mul(cem).IntPart()
}

// Inteiro arredonda para a unidade inteira, como a Midtrans espera o valor.
func Inteiro(v decimal.Decimal) int64 {
	return v.Round(0).IntPart()
}
