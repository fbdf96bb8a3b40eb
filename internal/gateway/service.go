package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/politica"
	"github.com/kennrick69/locacar/internal/rescisao"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	componente = "gateway"

	ExpiracaoPix    = 30 * time.Minute
	ExpiracaoCartao = 24 * time.Hour
)

// Service cria e renova intenções de pagamento.
type Service struct {
	DB         *gorm.DB
	Repository pagamento.Repository
	Rescisoes  rescisao.Repository
	Gateway    Gateway
	Motoristas *motorista.Service
	Cobrancas  *cobranca.Service
	Ledger     *pagamento.Ledger
	Politica   politica.Politica
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewService(db *gorm.DB, gw Gateway, motoristas *motorista.Service, cobrancas *cobranca.Service, ledger *pagamento.Ledger, pol politica.Politica, log *logger.Logger) *Service {
	return &Service{
		DB:         db,
		Repository: pagamento.NewRepository(),
		Rescisoes:  rescisao.NewRepository(),
		Gateway:    gw,
		Motoristas: motoristas,
		Cobrancas:  cobrancas,
		Ledger:     ledger,
		Politica:   pol,
		Log:        log,
		Agora:      time.Now,
	}
}

type IntencaoInput struct {
	Tipo        pagamento.Tipo   `json:"tipo"`
	MotoristaID uint             `json:"motoristaId"`
	CobrancaID  *uint            `json:"cobrancaId"`
	Metodo      pagamento.Metodo `json:"metodo"`
	Parcelas    int              `json:"parcelas"`
	UserID      uint             `json:"-"`
}

// plano é o que a intenção vai cobrar, decidido antes de chamar o gateway.
type plano struct {
	valorBase  decimal.Decimal
	taxa       decimal.Decimal
	total      decimal.Decimal
	parcelas   int
	cobrancaID *uint
	rescisaoID *uint
	descricao  string
	pagador    Pagador
}

// CriarIntencao calcula o valor devido, cria a transação no gateway e
// persiste a intenção pendente. A chamada externa acontece fora de transação,
// mas sob o lock do motorista; se falhar, nada é gravado.
func (s *Service) CriarIntencao(ctx context.Context, in IntencaoInput) (*pagamento.PagamentoGateway, error) {
	if in.MotoristaID == 0 {
		return nil, erros.Validacao("motoristaId", "obrigatório")
	}
	unlock := s.Motoristas.Travar(in.MotoristaID)
	defer unlock()

	var p plano
	err := s.Motoristas.NaTransacao(ctx, in.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		var err error
		p, err = s.planejar(tx, m, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.emitir(ctx, in, p, nil)
}

// Regenerar troca uma intenção vencida e não paga por uma nova, recalculando o valor.
func (s *Service) Regenerar(ctx context.Context, id uint) (*pagamento.PagamentoGateway, error) {
	antigo, err := s.Repository.BuscarGateway(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	unlock := s.Motoristas.Travar(antigo.MotoristaID)
	defer unlock()

	var (
		p  plano
		in IntencaoInput
	)
	err = s.Motoristas.NaTransacao(ctx, antigo.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		antigo, err := s.Repository.BuscarGateway(tx, id)
		if err != nil {
			return err
		}
		switch {
		case antigo.Recebido():
			return erros.Conflito("pagamento %d já foi recebido", antigo.ID)
		case antigo.SubstituidoPorID != nil:
			return erros.Conflito("pagamento %d já foi substituído por %d", antigo.ID, *antigo.SubstituidoPorID)
		case antigo.Vivo(s.Agora()):
			return erros.Conflito("pagamento %d ainda está válido", antigo.ID)
		case antigo.Status != pagamento.StatusPendente && antigo.Status != pagamento.StatusExpirado:
			return erros.Conflito("pagamento %d está %s", antigo.ID, antigo.Status)
		}
		antigo.Status = pagamento.StatusExpirado
		if err := s.Repository.SalvarGateway(tx, antigo); err != nil {
			return err
		}
		in = IntencaoInput{
			Tipo:        antigo.Tipo,
			MotoristaID: antigo.MotoristaID,
			CobrancaID:  antigo.CobrancaID,
			Metodo:      antigo.Metodo,
			Parcelas:    antigo.Parcelas,
			UserID:      antigo.UserID,
		}
		p, err = s.planejar(tx, m, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.emitir(ctx, in, p, &id)
}

func (s *Service) emitir(ctx context.Context, in IntencaoInput, p plano, substitui *uint) (*pagamento.PagamentoGateway, error) {
	agora := s.Agora()
	ref := gerarReferencia(in.Tipo, in.MotoristaID, agora)
	pg := &pagamento.PagamentoGateway{
		UserID:            in.UserID,
		MotoristaID:       in.MotoristaID,
		CobrancaID:        p.cobrancaID,
		RescisaoID:        p.rescisaoID,
		Tipo:              in.Tipo,
		Metodo:            in.Metodo,
		ValorBase:         p.valorBase,
		Parcelas:          p.parcelas,
		TaxaAcrescimo:     p.taxa,
		ValorTotal:        p.total,
		Status:            pagamento.StatusPendente,
		ReferenciaExterna: ref,
		Simulado:          s.Gateway.Simulado(),
	}

	switch in.Metodo {
	case pagamento.MetodoPix:
		pix, err := s.Gateway.CriarPix(ctx, PedidoPix{
			Referencia:    ref,
			Valor:         p.total,
			Descricao:     p.descricao,
			Pagador:       p.pagador,
			ExpiraMinutos: int(ExpiracaoPix / time.Minute),
		})
		if err != nil {
			s.Log.Error(componente, "criar pix %s: %v", ref, err)
			return nil, erros.Gateway("criar_pix", err)
		}
		expira := agora.Add(ExpiracaoPix)
		pg.ExternalID, pg.QRCode, pg.ExpiraEm = pix.ExternalID, pix.QRCode, &expira
	case pagamento.MetodoCartao:
		ck, err := s.Gateway.CriarCheckout(ctx, PedidoCheckout{
			Referencia:  ref,
			Valor:       p.total,
			Parcelas:    p.parcelas,
			Descricao:   p.descricao,
			Pagador:     p.pagador,
			ExpiraHoras: int(ExpiracaoCartao / time.Hour),
		})
		if err != nil {
			s.Log.Error(componente, "criar checkout %s: %v", ref, err)
			return nil, erros.Gateway("criar_checkout", err)
		}
		expira := agora.Add(ExpiracaoCartao)
		pg.ExternalID, pg.CheckoutRef, pg.CheckoutURL, pg.ExpiraEm = ck.ExternalID, ck.CheckoutRef, ck.URL, &expira
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repository.CriarGateway(tx, pg); err != nil {
			return err
		}
		if substitui == nil {
			return nil
		}
		antigo, err := s.Repository.BuscarGateway(tx, *substitui)
		if err != nil {
			return err
		}
		antigo.SubstituidoPorID = &pg.ID
		return s.Repository.SalvarGateway(tx, antigo)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info(componente, "intenção %d (%s/%s) criada para motorista %d: %s", pg.ID, pg.Tipo, pg.Metodo, pg.MotoristaID, pg.ValorTotal.StringFixed(2))
	return pg, nil
}

func (s *Service) planejar(tx *gorm.DB, m *motorista.Motorista, in IntencaoInput) (plano, error) {
	p := plano{pagador: Pagador{Nome: m.Nome, Email: m.Email, CPF: m.CPF}}

	switch in.Tipo {
	case pagamento.TipoCaucao:
		if m.CaucaoPaga {
			return p, erros.Conflito("caução do motorista %d já está paga", m.ID)
		}
		if m.Status != motorista.StatusAprovado {
			return p, erros.Transicao(string(m.Status), "cobrar_caucao", "caução só é cobrada de motorista aprovado")
		}
		p.valorBase = s.Politica.ValorCaucao()
		p.descricao = "Caução"
	case pagamento.TipoSemanal, pagamento.TipoMulta:
		if m.Encerrado() {
			return p, erros.Conflito("motorista %d já tem acerto final", m.ID)
		}
		if in.CobrancaID == nil {
			return p, erros.Validacao("cobrancaId", "obrigatório para %s", in.Tipo)
		}
		c, err := s.Cobrancas.Repository.BuscarPorID(tx, *in.CobrancaID)
		if err != nil {
			return p, err
		}
		if c.MotoristaID != m.ID {
			return p, erros.Validacao("cobrancaId", "cobrança %d não pertence ao motorista %d", c.ID, m.ID)
		}
		id := c.ID
		p.cobrancaID = &id
		if in.Tipo == pagamento.TipoSemanal {
			if c.Paga {
				return p, erros.Conflito("cobrança %d já está paga", c.ID)
			}
			saldo, err := s.Ledger.SaldoDevedor(tx, c)
			if err != nil {
				return p, err
			}
			p.valorBase = saldo
			p.descricao = "Aluguel semana " + c.SemanaReferencia.Format("02/01/2006")
		} else {
			p.valorBase = c.MultaPendente()
			p.descricao = "Multa semana " + c.SemanaReferencia.Format("02/01/2006")
		}
	case pagamento.TipoRescisao:
		res, err := s.Rescisoes.BuscarPorMotorista(tx, m.ID)
		if err != nil {
			return p, err
		}
		if res.Quitada {
			return p, erros.Conflito("acerto final do motorista %d já está quitado", m.ID)
		}
		if !res.SaldoFinal.IsNegative() {
			return p, erros.Conflito("acerto final do motorista %d não tem saldo devedor", m.ID)
		}
		id := res.ID
		p.rescisaoID = &id
		p.valorBase = res.SaldoFinal.Neg()
		p.descricao = "Acerto final"
	default:
		return p, erros.Validacao("tipo", "tipo de pagamento inválido: %q", in.Tipo)
	}

	p.valorBase = dinheiro.Arredondar(p.valorBase)
	if dinheiro.Quitado(p.valorBase) {
		return p, erros.Conflito("nada a pagar para %s", in.Tipo)
	}

	switch in.Metodo {
	case pagamento.MetodoPix:
		if in.Parcelas > 1 {
			return p, erros.Validacao("parcelas", "pix não aceita parcelamento")
		}
		p.parcelas = 1
		p.taxa = decimal.Zero
	case pagamento.MetodoCartao:
		p.parcelas = in.Parcelas
		if p.parcelas == 0 {
			p.parcelas = 1
		}
		taxa, err := s.Politica.TaxaParcelas(p.parcelas)
		if err != nil {
			return p, err
		}
		p.taxa = taxa
	default:
		return p, erros.Validacao("metodo", "método inválido: %q", in.Metodo)
	}
	p.total = Total(p.valorBase, p.taxa)

	if err := s.semIntencaoViva(tx, m.ID, in.Tipo, p); err != nil {
		return p, err
	}
	return p, nil
}

// Total aplica o acréscimo do parcelamento: base × (1 + taxa/100).
func Total(base, taxa decimal.Decimal) decimal.Decimal {
	return dinheiro.Arredondar(base.Add(dinheiro.Percentual(base, taxa)))
}

func (s *Service) semIntencaoViva(tx *gorm.DB, motoristaID uint, tipo pagamento.Tipo, p plano) error {
	pendentes, err := s.Repository.PendentesDe(tx, motoristaID, tipo)
	if err != nil {
		return err
	}
	agora := s.Agora()
	for _, pg := range pendentes {
		if !pg.Vivo(agora) || !mesmoAlvo(pg.CobrancaID, p.cobrancaID) || !mesmoAlvo(pg.RescisaoID, p.rescisaoID) {
			continue
		}
		return erros.Conflito("já existe pagamento %d pendente até %s", pg.ID, pg.ExpiraEm.Format(time.RFC3339))
	}
	return nil
}

func mesmoAlvo(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func gerarReferencia(tipo pagamento.Tipo, motoristaID uint, agora time.Time) string {
	u := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("LC-%s-%d-%s-%s", strings.ToUpper(string(tipo)), motoristaID, agora.Format("20060102-150405"), u)
}

// ExpirarVencidas marca como expiradas as intenções pendentes fora da validade.
func (s *Service) ExpirarVencidas(ctx context.Context) (int, error) {
	agora := s.Agora()
	vencidas, err := s.Repository.ListarVencidas(s.DB.WithContext(ctx), agora)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range vencidas {
		err := s.Motoristas.Executar(ctx, v.MotoristaID, func(tx *gorm.DB, _ *motorista.Motorista) error {
			pg, err := s.Repository.BuscarGateway(tx, v.ID)
			if err != nil {
				return err
			}
			if pg.Status != pagamento.StatusPendente || pg.Vivo(agora) {
				return nil
			}
			pg.Status = pagamento.StatusExpirado
			if err := s.Repository.SalvarGateway(tx, pg); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return n, err
		}
	}
	if n > 0 {
		s.Log.Info(componente, "%d intenção(ões) expirada(s)", n)
	}
	return n, nil
}

func (s *Service) Buscar(ctx context.Context, id uint) (*pagamento.PagamentoGateway, error) {
	return s.Repository.BuscarGateway(s.DB.WithContext(ctx), id)
}

func (s *Service) ListarPorMotorista(ctx context.Context, motoristaID uint) ([]pagamento.PagamentoGateway, error) {
	return s.Repository.ListarGatewayPorMotorista(s.DB.WithContext(ctx), motoristaID)
}

// OpcaoParcelamento é uma linha da tabela de parcelamento no cartão.
type OpcaoParcelamento struct {
	Parcelas     int             `json:"parcelas"`
	Taxa         decimal.Decimal `json:"taxa"`
	Total        decimal.Decimal `json:"total"`
	ValorParcela decimal.Decimal `json:"valorParcela"`
}

// Parcelamento lista as opções de cartão para um valor.
func (s *Service) Parcelamento(valor decimal.Decimal) []OpcaoParcelamento {
	var out []OpcaoParcelamento
	for _, n := range s.Politica.ParcelasPermitidas() {
		taxa, err := s.Politica.TaxaParcelas(n)
		if err != nil {
			continue
		}
		total := Total(valor, taxa)
		out = append(out, OpcaoParcelamento{
			Parcelas:     n,
			Taxa:         taxa,
			Total:        total,
			ValorParcela: dinheiro.Arredondar(total.Div(decimal.NewFromInt(int64(n)))),
		})
	}
	return out
}
