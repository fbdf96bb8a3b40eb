package rescisao

import (
	"context"
	"time"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const componente = "rescisao"

// Service fecha o contrato: calcula o acerto final e rescinde o motorista.
type Service struct {
	DB         *gorm.DB
	Repository Repository
	Pagamentos pagamento.Repository
	Motoristas *motorista.Service
	Cobrancas  *cobranca.Service
	Ledger     *pagamento.Ledger
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewService(db *gorm.DB, motoristas *motorista.Service, cobrancas *cobranca.Service, ledger *pagamento.Ledger, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Pagamentos: pagamento.NewRepository(),
		Motoristas: motoristas,
		Cobrancas:  cobrancas,
		Ledger:     ledger,
		Log:        log,
		Agora:      time.Now,
	}
}

type LiquidarInput struct {
	MotoristaID uint            `json:"-"`
	Danos       decimal.Decimal `json:"danos"`
	Outros      decimal.Decimal `json:"outrosDescontos"`
	Observacoes string          `json:"observacoes"`
	CriadoPor   uint            `json:"-"`
}

// Liquidar calcula e grava o acerto final, uma única vez por motorista, e
// leva o motorista a rescindido na mesma transação.
func (s *Service) Liquidar(ctx context.Context, in LiquidarInput) (*Rescisao, error) {
	if in.Danos.IsNegative() {
		return nil, erros.Validacao("danos", "não pode ser negativo")
	}
	if in.Outros.IsNegative() {
		return nil, erros.Validacao("outrosDescontos", "não pode ser negativo")
	}

	var out *Rescisao
	err := s.Motoristas.Executar(ctx, in.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		if _, err := s.Repository.BuscarPorMotorista(tx, m.ID); err == nil {
			return erros.Conflito("motorista %d já tem acerto final", m.ID)
		} else if !erros.IsNotFound(err) {
			return err
		}
		if !m.EmOperacao() {
			return erros.Transicao(string(m.Status), string(motorista.EventoRescindir), "só motorista ativo ou inadimplente pode ser rescindido")
		}

		agora := s.Agora()
		if _, err := s.Cobrancas.AvaliarTx(tx, m.ID, agora); err != nil {
			return err
		}
		pendentes, multas, err := s.debitos(tx, m.ID)
		if err != nil {
			return err
		}
		caucao, err := s.caucao(tx, m)
		if err != nil {
			return err
		}

		r := Calcular(pendentes, multas, in.Danos, in.Outros, caucao)
		r.MotoristaID = m.ID
		r.Observacoes = in.Observacoes
		r.CriadoPor = in.CriadoPor
		if err := s.Repository.Criar(tx, &r); err != nil {
			return err
		}
		if err := s.cancelarIntencoes(tx, m.ID); err != nil {
			return err
		}
		if err := s.Motoristas.AplicarEvento(tx, m, motorista.EventoRescindir, ""); err != nil {
			return err
		}
		s.Log.Info(componente, "acerto final do motorista %d: caução %s, débitos %s, multas %s, saldo %s",
			m.ID, r.ValorCaucao.StringFixed(2), r.DebitosPendentes.StringFixed(2), r.MultasAcumuladas.StringFixed(2), r.SaldoFinal.StringFixed(2))
		out = &r
		return nil
	})
	return out, err
}

// debitos soma o saldo das cobranças em aberto e as multas diferidas não quitadas.
func (s *Service) debitos(tx *gorm.DB, motoristaID uint) (decimal.Decimal, decimal.Decimal, error) {
	cobrancas, err := s.Cobrancas.Repository.ListarPorMotorista(tx, motoristaID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	pendentes, multas := decimal.Zero, decimal.Zero
	for i := range cobrancas {
		c := &cobrancas[i]
		multas = multas.Add(c.MultaPendente())
		if c.Paga {
			continue
		}
		saldo, err := s.Ledger.SaldoDevedor(tx, c)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		pendentes = pendentes.Add(saldo)
	}
	return pendentes, multas, nil
}

// caucao é o que foi confirmado pelo gateway; caução marcada por outro
// caminho vale o valor da política.
func (s *Service) caucao(tx *gorm.DB, m *motorista.Motorista) (decimal.Decimal, error) {
	confirmado, err := s.Pagamentos.CaucaoConfirmada(tx, m.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if confirmado.IsZero() && m.CaucaoPaga {
		return s.Ledger.Politica.ValorCaucao(), nil
	}
	return dinheiro.Arredondar(confirmado), nil
}

// cancelarIntencoes derruba as intenções semanais e de multa ainda pendentes:
// depois do acerto, esses débitos só existem dentro da rescisão.
func (s *Service) cancelarIntencoes(tx *gorm.DB, motoristaID uint) error {
	for _, tipo := range []pagamento.Tipo{pagamento.TipoSemanal, pagamento.TipoMulta} {
		pendentes, err := s.Pagamentos.PendentesDe(tx, motoristaID, tipo)
		if err != nil {
			return err
		}
		for i := range pendentes {
			pg := &pendentes[i]
			pg.Status = pagamento.StatusCancelado
			if err := s.Pagamentos.SalvarGateway(tx, pg); err != nil {
				return err
			}
			s.Log.Info(componente, "intenção %d cancelada pelo acerto final", pg.ID)
		}
	}
	return nil
}

func (s *Service) Buscar(ctx context.Context, motoristaID uint) (*Rescisao, error) {
	return s.Repository.BuscarPorMotorista(s.DB.WithContext(ctx), motoristaID)
}
