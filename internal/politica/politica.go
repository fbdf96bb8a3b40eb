// Package politica expõe a política de cobrança como um valor imutável,
// montado uma vez a partir do repositório de configuração chave/valor.
package politica

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/shopspring/decimal"
)

type TipoMulta string

const (
	MultaPercentual TipoMulta = "percentual"
	MultaFixa       TipoMulta = "fixa"
)

// Chaves lidas do repositório de configuração.
const (
	ChaveDiaCobranca       = "dia_cobranca"
	ChaveMultaTipo         = "multa_tipo"
	ChaveMultaValor        = "multa_valor"
	ChaveDiasCarencia      = "dias_carencia"
	ChaveMultaDiferida     = "multa_diferida"
	ChaveValorCaucao       = "valor_caucao"
	ChaveAcrescimoParcelas = "acrescimo_parcelas"
)

// Store é o repositório de configuração chave/valor (colaborador externo).
type Store interface {
	Valor(ctx context.Context, chave string) (string, bool, error)
}

// MapStore é um Store em memória.
type MapStore map[string]string

func (m MapStore) Valor(_ context.Context, chave string) (string, bool, error) {
	v, ok := m[chave]
	return v, ok, nil
}

// EnvStore lê as chaves de variáveis de ambiente POLITICA_<CHAVE>.
type EnvStore struct{}

func (EnvStore) Valor(_ context.Context, chave string) (string, bool, error) {
	v, ok := os.LookupEnv("POLITICA_" + strings.ToUpper(chave))
	return v, ok, nil
}

// Politica é um snapshot imutável; os campos não são exportados para que
// ninguém altere a política no meio de um cálculo.
type Politica struct {
	diaCobranca   time.Weekday
	multaTipo     TipoMulta
	multaValor    decimal.Decimal
	diasCarencia  int
	multaDiferida bool
	valorCaucao   decimal.Decimal
	parcelas      map[int]decimal.Decimal
}

// Params é a forma "aberta" usada para construir uma Politica (testes, seeds).
type Params struct {
	DiaCobranca       time.Weekday
	MultaTipo         TipoMulta
	MultaValor        decimal.Decimal
	DiasCarencia      int
	MultaDiferida     bool
	ValorCaucao       decimal.Decimal
	AcrescimoParcelas map[int]decimal.Decimal
}

// Padrao devolve os parâmetros usados quando a chave não está configurada.
func Padrao() Params {
	return Params{
		DiaCobranca:  time.Monday,
		MultaTipo:    MultaPercentual,
		MultaValor:   decimal.NewFromInt(2),
		DiasCarencia: 3,
		ValorCaucao:  decimal.Zero,
	}
}

// Nova valida os parâmetros e congela a política.
func Nova(p Params) (Politica, error) {
	if p.DiaCobranca < time.Sunday || p.DiaCobranca > time.Saturday {
		return Politica{}, erros.Validacao(ChaveDiaCobranca, "dia da semana inválido: %d", p.DiaCobranca)
	}
	if p.MultaTipo != MultaPercentual && p.MultaTipo != MultaFixa {
		return Politica{}, erros.Validacao(ChaveMultaTipo, "tipo de multa inválido: %q", p.MultaTipo)
	}
	if p.MultaValor.IsNegative() {
		return Politica{}, erros.Validacao(ChaveMultaValor, "valor de multa negativo")
	}
	if p.DiasCarencia < 0 {
		return Politica{}, erros.Validacao(ChaveDiasCarencia, "carência negativa")
	}
	if p.ValorCaucao.IsNegative() {
		return Politica{}, erros.Validacao(ChaveValorCaucao, "caução negativa")
	}
	tabela := make(map[int]decimal.Decimal, len(p.AcrescimoParcelas))
	for n, taxa := range p.AcrescimoParcelas {
		if n < 1 {
			return Politica{}, erros.Validacao(ChaveAcrescimoParcelas, "número de parcelas inválido: %d", n)
		}
		if taxa.IsNegative() {
			return Politica{}, erros.Validacao(ChaveAcrescimoParcelas, "taxa negativa para %dx", n)
		}
		tabela[n] = taxa
	}
	return Politica{
		diaCobranca:   p.DiaCobranca,
		multaTipo:     p.MultaTipo,
		multaValor:    p.MultaValor,
		diasCarencia:  p.DiasCarencia,
		multaDiferida: p.MultaDiferida,
		valorCaucao:   p.ValorCaucao,
		parcelas:      tabela,
	}, nil
}

// MustNova é para testes e valores literais.
func MustNova(p Params) Politica {
	pol, err := Nova(p)
	if err != nil {
		panic(err)
	}
	return pol
}

func (p Politica) DiaCobranca() time.Weekday { return p.diaCobranca }
func (p Politica) MultaTipo() TipoMulta { return p.multaTipo }
func (p Politica) MultaValor() decimal.Decimal { return p.multaValor }
func (p Politica) DiasCarencia() int { return p.diasCarencia }
func (p Politica) MultaDiferida() bool { return p.multaDiferida }
func (p Politica) ValorCaucao() decimal.Decimal { return p.valorCaucao }

// TaxaParcelas devolve o acréscimo percentual para n parcelas no cartão.
// 1x sem entrada na tabela é 0%; outros valores ausentes são erro.
func (p Politica) TaxaParcelas(n int) (decimal.Decimal, error) {
	if n < 1 {
		return decimal.Zero, erros.Validacao("parcelas", "deve ser ao menos 1")
	}
	if taxa, ok := p.parcelas[n]; ok {
		return taxa, nil
	}
	if n == 1 {
		return decimal.Zero, nil
	}
	return decimal.Zero, erros.Validacao("parcelas", "parcelamento em %dx não permitido", n)
}

// ParcelasPermitidas lista as opções de parcelamento em ordem.
func (p Politica) ParcelasPermitidas() []int {
	out := []int{1}
	for n := range p.parcelas {
		if n != 1 {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// Carregar lê todas as chaves do Store e monta a política.
func Carregar(ctx context.Context, s Store) (Politica, error) {
	p := Padrao()

	ler := func(chave string) (string, bool, error) {
		v, ok, err := s.Valor(ctx, chave)
		if err != nil {
			return "", false, fmt.Errorf("ler %s: %w", chave, err)
		}
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != "", nil
	}

	if v, ok, err := ler(ChaveDiaCobranca); err != nil {
		return Politica{}, err
	} else if ok {
		dia, err := ParseDiaSemana(v)
		if err != nil {
			return Politica{}, err
		}
		p.DiaCobranca = dia
	}
	if v, ok, err := ler(ChaveMultaTipo); err != nil {
		return Politica{}, err
	} else if ok {
		p.MultaTipo = TipoMulta(strings.ToLower(v))
	}
	if v, ok, err := ler(ChaveMultaValor); err != nil {
		return Politica{}, err
	} else if ok {
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			return Politica{}, erros.Validacao(ChaveMultaValor, "valor inválido: %q", v)
		}
		p.MultaValor = d
	}
	if v, ok, err := ler(ChaveDiasCarencia); err != nil {
		return Politica{}, err
	} else if ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Politica{}, erros.Validacao(ChaveDiasCarencia, "valor inválido: %q", v)
		}
		p.DiasCarencia = n
	}
	if v, ok, err := ler(ChaveMultaDiferida); err != nil {
		return Politica{}, err
	} else if ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Politica{}, erros.Validacao(ChaveMultaDiferida, "valor inválido: %q", v)
		}
		p.MultaDiferida = b
	}
	if v, ok, err := ler(ChaveValorCaucao); err != nil {
		return Politica{}, err
	} else if ok {
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			return Politica{}, erros.Validacao(ChaveValorCaucao, "valor inválido: %q", v)
		}
		p.ValorCaucao = d
	}
	if v, ok, err := ler(ChaveAcrescimoParcelas); err != nil {
		return Politica{}, err
	} else if ok {
		tabela, err := ParseTabelaParcelas(v)
		if err != nil {
			return Politica{}, err
		}
		p.AcrescimoParcelas = tabela
	}

	return Nova(p)
}

// ParseTabelaParcelas lê "2:3.5,3:5" → {2: 3.5, 3: 5}.
func ParseTabelaParcelas(s string) (map[int]decimal.Decimal, error) {
	tabela := map[int]decimal.Decimal{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		partes := strings.SplitN(item, ":", 2)
		if len(partes) != 2 {
			return nil, erros.Validacao(ChaveAcrescimoParcelas, "item inválido: %q", item)
		}
		n, err := strconv.Atoi(strings.TrimSpace(partes[0]))
		if err != nil {
			return nil, erros.Validacao(ChaveAcrescimoParcelas, "parcelas inválidas: %q", partes[0])
		}
		taxa, err := decimal.NewFromString(strings.TrimSpace(partes[1]))
		if err != nil {
			return nil, erros.Validacao(ChaveAcrescimoParcelas, "taxa inválida: %q", partes[1])
		}
		tabela[n] = taxa
	}
	return tabela, nil
}

var diasSemana = map[string]time.Weekday{
	"domingo": time.Sunday, "dom": time.Sunday, "sunday": time.Sunday,
	"segunda": time.Monday, "seg": time.Monday, "monday": time.Monday,
	"terca": time.Tuesday, "terça": time.Tuesday, "ter": time.Tuesday, "tuesday": time.Tuesday,
	"quarta": time.Wednesday, "qua": time.Wednesday, "wednesday": time.Wednesday,
	"quinta": time.Thursday, "qui": time.Thursday, "thursday": time.Thursday,
	"sexta": time.Friday, "sex": time.Friday, "friday": time.Friday,
	"sabado": time.Saturday, "sábado": time.Saturday, "sab": time.Saturday, "saturday": time.Saturday,
}

// ParseDiaSemana aceita nome (pt/en) ou número 0–6 (domingo = 0).
func ParseDiaSemana(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, erros.Validacao(ChaveDiaCobranca, "dia de cobrança ausente")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, erros.Validacao(ChaveDiaCobranca, "dia fora de 0–6: %d", n)
		}
		return time.Weekday(n), nil
	}
	s = strings.TrimSuffix(s, "-feira")
	if d, ok := diasSemana[s]; ok {
		return d, nil
	}
	return 0, erros.Validacao(ChaveDiaCobranca, "dia desconhecido: %q", s)
}
