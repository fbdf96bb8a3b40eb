package pagamento

import (
	"context"
	"time"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const componente = "pagamento"

// Ledger é o livro de pagamentos: decide quanto falta de cada cobrança e
// mantém a flag Paga coerente com o que foi confirmado.
type Ledger struct {
	DB         *gorm.DB
	Repository Repository
	Motoristas *motorista.Service
	Cobrancas  *cobranca.Service
	Politica   politica.Politica
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewLedger(db *gorm.DB, motoristas *motorista.Service, cobrancas *cobranca.Service, pol politica.Politica, log *logger.Logger) *Ledger {
	return &Ledger{
		DB:         db,
		Repository: NewRepository(),
		Motoristas: motoristas,
		Cobrancas:  cobrancas,
		Politica:   pol,
		Log:        log,
		Agora:      time.Now,
	}
}

func (l *Ledger) TotalPago(tx *gorm.DB, cobrancaID uint) (decimal.Decimal, error) {
	return l.Repository.TotalPago(tx, cobrancaID)
}

// SaldoDevedor é o que ainda falta pagar da cobrança (nunca negativo).
func (l *Ledger) SaldoDevedor(tx *gorm.DB, c *cobranca.CobrancaSemanal) (decimal.Decimal, error) {
	pago, err := l.TotalPago(tx, c.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return dinheiro.NaoNegativo(c.ValorFinal.Sub(pago)), nil
}

// MarcarSeQuitada liga ou desliga Paga conforme o total confirmado, com
// tolerância de um centavo. Grava apenas se algo mudou.
func (l *Ledger) MarcarSeQuitada(tx *gorm.DB, c *cobranca.CobrancaSemanal, agora time.Time) error {
	pago, err := l.TotalPago(tx, c.ID)
	if err != nil {
		return err
	}
	quitada := dinheiro.Quitado(c.ValorFinal.Sub(pago))
	if quitada == c.Paga {
		return nil
	}
	c.Paga = quitada
	if quitada {
		c.DataPagamento = &agora
		l.Log.Info(componente, "cobrança %d quitada (pago %s de %s)", c.ID, pago.StringFixed(2), c.ValorFinal.StringFixed(2))
	} else {
		c.DataPagamento = nil
		l.Log.Warn(componente, "cobrança %d reaberta (pago %s de %s)", c.ID, pago.StringFixed(2), c.ValorFinal.StringFixed(2))
	}
	return l.Cobrancas.Repository.Salvar(tx, c)
}

type ManualInput struct {
	CobrancaID    uint            `json:"cobrancaId"`
	Valor         decimal.Decimal `json:"valor"`
	DataPagamento *time.Time      `json:"dataPagamento"`
	Observacao    string          `json:"observacao"`
	CriadoPor     uint            `json:"-"`
}

// RegistrarPagamentoManual lança um pagamento parcial ou total contra a cobrança.
func (l *Ledger) RegistrarPagamentoManual(ctx context.Context, in ManualInput) (*PagamentoManual, error) {
	if !in.Valor.IsPositive() {
		return nil, erros.Validacao("valor", "deve ser positivo")
	}
	c, err := l.Cobrancas.Buscar(ctx, in.CobrancaID)
	if err != nil {
		return nil, err
	}

	var out *PagamentoManual
	err = l.Motoristas.Executar(ctx, c.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		if m.Encerrado() {
			return erros.Conflito("motorista %d já tem acerto final", m.ID)
		}
		c, err := l.Cobrancas.Repository.BuscarPorID(tx, in.CobrancaID)
		if err != nil {
			return err
		}
		if c.Paga {
			return erros.Conflito("cobrança %d já está paga", c.ID)
		}
		agora := l.Agora()
		if pg, err := l.intencaoViva(tx, c, agora); err != nil {
			return err
		} else if pg != nil {
			return erros.Conflito("cobrança %d tem a intenção de pagamento %d pendente no gateway", c.ID, pg.ID)
		}
		saldo, err := l.SaldoDevedor(tx, c)
		if err != nil {
			return err
		}
		valor := dinheiro.Arredondar(in.Valor)
		if valor.GreaterThan(saldo.Add(dinheiro.Tolerancia)) {
			return erros.Conflito("pagamento de %s excede o saldo de %s", valor.StringFixed(2), saldo.StringFixed(2))
		}

		data := agora
		if in.DataPagamento != nil {
			data = *in.DataPagamento
		}
		p := &PagamentoManual{
			CobrancaID:    c.ID,
			MotoristaID:   c.MotoristaID,
			Valor:         valor,
			DataPagamento: data,
			Observacao:    in.Observacao,
			CriadoPor:     in.CriadoPor,
		}
		if err := l.Repository.CriarManual(tx, p); err != nil {
			return err
		}
		if err := l.MarcarSeQuitada(tx, c, agora); err != nil {
			return err
		}
		out = p
		return l.Cobrancas.SincronizarInadimplencia(tx, m, agora)
	})
	return out, err
}

// intencaoViva devolve a intenção semanal ainda pagável no gateway para a cobrança.
func (l *Ledger) intencaoViva(tx *gorm.DB, c *cobranca.CobrancaSemanal, agora time.Time) (*PagamentoGateway, error) {
	pendentes, err := l.Repository.PendentesDe(tx, c.MotoristaID, TipoSemanal)
	if err != nil {
		return nil, err
	}
	for i := range pendentes {
		pg := &pendentes[i]
		if pg.CobrancaID != nil && *pg.CobrancaID == c.ID && pg.Vivo(agora) {
			return pg, nil
		}
	}
	return nil, nil
}

// ExcluirPagamentoManual remove um lançamento e reavalia a cobrança.
func (l *Ledger) ExcluirPagamentoManual(ctx context.Context, id uint) error {
	p, err := l.Repository.BuscarManual(l.DB.WithContext(ctx), id)
	if err != nil {
		return err
	}
	return l.Motoristas.Executar(ctx, p.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		if m.Encerrado() {
			return erros.Conflito("motorista %d já tem acerto final; pagamento não pode ser excluído", m.ID)
		}
		p, err := l.Repository.BuscarManual(tx, id)
		if err != nil {
			return err
		}
		if err := l.Repository.ExcluirManual(tx, p.ID); err != nil {
			return err
		}
		c, err := l.Cobrancas.Repository.BuscarPorID(tx, p.CobrancaID)
		if err != nil {
			return err
		}
		agora := l.Agora()
		if err := l.MarcarSeQuitada(tx, c, agora); err != nil {
			return err
		}
		l.Log.Info(componente, "pagamento manual %d excluído (cobrança %d)", p.ID, c.ID)
		return l.Cobrancas.SincronizarInadimplencia(tx, m, agora)
	})
}

func (l *Ledger) ListarManuais(ctx context.Context, cobrancaID uint) ([]PagamentoManual, error) {
	return l.Repository.ListarManuais(l.DB.WithContext(ctx), cobrancaID)
}

// Saldo resume a posição financeira do motorista.
type Saldo struct {
	MotoristaID       uint            `json:"motoristaId"`
	TotalCobrado      decimal.Decimal `json:"totalCobrado"`
	TotalPago         decimal.Decimal `json:"totalPago"`
	EmAberto          decimal.Decimal `json:"emAberto"`
	MultasDiferidas   decimal.Decimal `json:"multasDiferidas"`
	CobrancasEmAberto int             `json:"cobrancasEmAberto"`
}

func (l *Ledger) SaldoMotorista(ctx context.Context, motoristaID uint) (Saldo, error) {
	db := l.DB.WithContext(ctx)
	if _, err := l.Motoristas.Repository.BuscarPorID(db, motoristaID); err != nil {
		return Saldo{}, err
	}
	cobrancas, err := l.Cobrancas.Repository.ListarPorMotorista(db, motoristaID)
	if err != nil {
		return Saldo{}, err
	}
	s := Saldo{MotoristaID: motoristaID, TotalCobrado: decimal.Zero, TotalPago: decimal.Zero, EmAberto: decimal.Zero, MultasDiferidas: decimal.Zero}
	for i := range cobrancas {
		c := &cobrancas[i]
		pago, err := l.TotalPago(db, c.ID)
		if err != nil {
			return Saldo{}, err
		}
		s.TotalCobrado = s.TotalCobrado.Add(c.ValorFinal)
		s.TotalPago = s.TotalPago.Add(pago)
		s.MultasDiferidas = s.MultasDiferidas.Add(c.MultaPendente())
		if !c.Paga {
			s.EmAberto = s.EmAberto.Add(dinheiro.NaoNegativo(c.ValorFinal.Sub(pago)))
			s.CobrancasEmAberto++
		}
	}
	return s, nil
}

// SituacaoCaucao mostra o exigido pela política contra o confirmado pelo gateway.
type SituacaoCaucao struct {
	Exigido    decimal.Decimal `json:"exigido"`
	Confirmado decimal.Decimal `json:"confirmado"`
	Pendente   decimal.Decimal `json:"pendente"`
	Paga       bool            `json:"paga"`
}

func (l *Ledger) Caucao(ctx context.Context, motoristaID uint) (SituacaoCaucao, error) {
	db := l.DB.WithContext(ctx)
	m, err := l.Motoristas.Repository.BuscarPorID(db, motoristaID)
	if err != nil {
		return SituacaoCaucao{}, err
	}
	confirmado, err := l.Repository.CaucaoConfirmada(db, motoristaID)
	if err != nil {
		return SituacaoCaucao{}, err
	}
	exigido := l.Politica.ValorCaucao()
	return SituacaoCaucao{
		Exigido:    exigido,
		Confirmado: confirmado,
		Pendente:   dinheiro.NaoNegativo(exigido.Sub(confirmado)),
		Paga:       m.CaucaoPaga,
	}, nil
}
