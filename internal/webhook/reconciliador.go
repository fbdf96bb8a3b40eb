package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/dinheiro"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/gateway"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/rescisao"
	"gorm.io/gorm"
)

const componente = "webhook"

// CadastroExterno registra o motorista fora do sistema depois da caução.
type CadastroExterno interface {
	Registrar(ctx context.Context, m motorista.Motorista) error
}

type Efeito string

const (
	EfeitoAplicado   Efeito = "aplicado"
	EfeitoCreditado  Efeito = "creditado"
	EfeitoRevisao    Efeito = "revisao"
	EfeitoJaPago     Efeito = "ja_pago"
	EfeitoSemMudanca Efeito = "sem_mudanca"
)

// Mudou indica que a notificação alterou o pagamento local.
func (e Efeito) Mudou() bool {
	return e == EfeitoAplicado || e == EfeitoCreditado || e == EfeitoRevisao
}

// Reconciliacao descreve o que uma notificação fez com o pagamento local.
type Reconciliacao struct {
	PagamentoID uint             `json:"pagamentoId"`
	Status      pagamento.Status `json:"status"`
	Efeito      Efeito           `json:"efeito"`
}

// Reconciliador é o único caminho que muda o status de um PagamentoGateway
// depois de criado. Entregas repetidas não têm efeito.
type Reconciliador struct {
	DB         *gorm.DB
	Pagamentos pagamento.Repository
	Rescisoes  rescisao.Repository
	Motoristas *motorista.Service
	Cobrancas  *cobranca.Service
	Ledger     *pagamento.Ledger
	Cadastro   CadastroExterno
	Log        *logger.Logger
	Agora      func() time.Time
}

func NewReconciliador(db *gorm.DB, motoristas *motorista.Service, cobrancas *cobranca.Service, ledger *pagamento.Ledger, cadastro CadastroExterno, log *logger.Logger) *Reconciliador {
	return &Reconciliador{
		DB:         db,
		Pagamentos: pagamento.NewRepository(),
		Rescisoes:  rescisao.NewRepository(),
		Motoristas: motoristas,
		Cobrancas:  cobrancas,
		Ledger:     ledger,
		Cadastro:   cadastro,
		Log:        log,
		Agora:      time.Now,
	}
}

// Reconciliar aplica o status reportado pelo gateway ao pagamento local.
func (r *Reconciliador) Reconciliar(ctx context.Context, externalID string, res gateway.Resultado) (Reconciliacao, error) {
	pg, err := r.Pagamentos.BuscarPorExternalID(r.DB.WithContext(ctx), externalID)
	if err != nil {
		if erros.IsNotFound(err) {
			r.Log.Warn(componente, "notificação para external_id desconhecido %s (status %q)", externalID, res.Raw)
			return Reconciliacao{Efeito: EfeitoSemMudanca}, &erros.ReconciliationError{ExternalID: externalID, Motivo: "pagamento local inexistente"}
		}
		return Reconciliacao{}, err
	}
	out := Reconciliacao{PagamentoID: pg.ID, Status: pg.Status, Efeito: EfeitoSemMudanca}
	if pg.Recebido() {
		out.Efeito = EfeitoJaPago
		return out, nil
	}
	if res.Status == gateway.Desconhecido {
		r.Log.Debug(componente, "status %q não reconhecido para %s", res.Raw, externalID)
		return out, nil
	}

	unlock := r.Motoristas.Travar(pg.MotoristaID)
	defer unlock()

	var cadastrar *motorista.Motorista
	err = r.Motoristas.NaTransacao(ctx, pg.MotoristaID, func(tx *gorm.DB, m *motorista.Motorista) error {
		pg, err := r.Pagamentos.BuscarGateway(tx, pg.ID)
		if err != nil {
			return err
		}
		out.Status = pg.Status
		if pg.Recebido() {
			out.Efeito = EfeitoJaPago
			return nil
		}

		agora := r.Agora()
		switch res.Status {
		case gateway.Aprovado:
			return r.aprovar(tx, m, pg, agora, &out, &cadastrar)
		case gateway.Rejeitado, gateway.Cancelado:
			pg.Status = pagamento.StatusCancelado
		case gateway.Estornado:
			pg.Status = pagamento.StatusEstornado
		default:
			return nil
		}
		if pg.Status == out.Status {
			return nil
		}
		if err := r.Pagamentos.SalvarGateway(tx, pg); err != nil {
			return err
		}
		r.Log.Info(componente, "pagamento %d (%s) %s -> %s via %s", pg.ID, pg.Tipo, out.Status, pg.Status, externalID)
		out.Status, out.Efeito = pg.Status, EfeitoAplicado
		return nil
	})
	if err != nil {
		return Reconciliacao{}, err
	}
	if cadastrar != nil {
		_ = r.cadastrar(ctx, *cadastrar)
	}
	return out, nil
}

type destino int

const (
	destinoAplicar destino = iota
	destinoCreditar
	destinoRevisar
)

// aprovar grava o pagamento como recebido e decide onde o valor entra: na
// cobrança, como crédito no acerto final ou em revisão pelo operador.
func (r *Reconciliador) aprovar(tx *gorm.DB, m *motorista.Motorista, pg *pagamento.PagamentoGateway, agora time.Time, out *Reconciliacao, cadastrar **motorista.Motorista) error {
	anterior := pg.Status
	d, motivo, res, err := r.destinoAprovacao(tx, m, pg)
	if err != nil {
		return err
	}
	pg.PagoEm = &agora
	switch d {
	case destinoRevisar:
		pg.Status = pagamento.StatusRevisao
		pg.MotivoRevisao = motivo
		if err := r.Pagamentos.SalvarGateway(tx, pg); err != nil {
			return err
		}
		r.Log.Warn(componente, "pagamento %d (%s) de %s recebido e enviado para revisão: %s", pg.ID, pg.Tipo, pg.ValorBase.StringFixed(2), motivo)
		out.Status, out.Efeito = pg.Status, EfeitoRevisao
		return nil
	case destinoCreditar:
		pg.Status = pagamento.StatusPago
		pg.RescisaoID = &res.ID
		if err := r.Pagamentos.SalvarGateway(tx, pg); err != nil {
			return err
		}
		res.Creditar(pg.ValorBase)
		if err := r.Rescisoes.Salvar(tx, res); err != nil {
			return err
		}
		r.Log.Warn(componente, "pagamento %d (%s) de %s chegou depois do acerto final %d: creditado, saldo %s",
			pg.ID, pg.Tipo, pg.ValorBase.StringFixed(2), res.ID, res.SaldoFinal.StringFixed(2))
		out.Status, out.Efeito = pg.Status, EfeitoCreditado
		return nil
	}

	pg.Status = pagamento.StatusPago
	if err := r.Pagamentos.SalvarGateway(tx, pg); err != nil {
		return err
	}
	r.Log.Info(componente, "pagamento %d (%s) %s -> %s via %s", pg.ID, pg.Tipo, anterior, pg.Status, pg.ExternalID)
	out.Status, out.Efeito = pg.Status, EfeitoAplicado
	if err := r.aplicarAprovacao(tx, m, pg, agora); err != nil {
		return err
	}
	if pg.Tipo == pagamento.TipoCaucao && m.CaucaoPaga && !m.CadastroExterno {
		copia := *m
		*cadastrar = &copia
	}
	return nil
}

// destinoAprovacao confere, antes de gravar, se o valor ainda cabe no débito
// a que a intenção se refere.
func (r *Reconciliador) destinoAprovacao(tx *gorm.DB, m *motorista.Motorista, pg *pagamento.PagamentoGateway) (destino, string, *rescisao.Rescisao, error) {
	if pg.Tipo != pagamento.TipoSemanal && pg.Tipo != pagamento.TipoMulta {
		return destinoAplicar, "", nil, nil
	}
	if m.Encerrado() {
		res, err := r.Rescisoes.BuscarPorMotorista(tx, m.ID)
		if erros.IsNotFound(err) {
			return destinoRevisar, "motorista encerrado sem acerto final", nil, nil
		}
		if err != nil {
			return 0, "", nil, err
		}
		return destinoCreditar, "", res, nil
	}
	if pg.CobrancaID == nil {
		return destinoRevisar, "pagamento sem cobrança", nil, nil
	}
	c, err := r.Cobrancas.Repository.BuscarPorID(tx, *pg.CobrancaID)
	if err != nil {
		return 0, "", nil, err
	}
	if pg.Tipo == pagamento.TipoMulta {
		if c.MultaQuitada || !c.MultaPendente().IsPositive() {
			return destinoRevisar, fmt.Sprintf("multa da cobrança %d já quitada", c.ID), nil, nil
		}
		return destinoAplicar, "", nil, nil
	}
	if c.Paga {
		return destinoRevisar, fmt.Sprintf("cobrança %d já quitada", c.ID), nil, nil
	}
	saldo, err := r.Ledger.SaldoDevedor(tx, c)
	if err != nil {
		return 0, "", nil, err
	}
	if pg.ValorBase.GreaterThan(saldo.Add(dinheiro.Tolerancia)) {
		return destinoRevisar, fmt.Sprintf("valor %s excede o saldo %s da cobrança %d", pg.ValorBase.StringFixed(2), saldo.StringFixed(2), c.ID), nil, nil
	}
	return destinoAplicar, "", nil, nil
}

func (r *Reconciliador) aplicarAprovacao(tx *gorm.DB, m *motorista.Motorista, pg *pagamento.PagamentoGateway, agora time.Time) error {
	switch pg.Tipo {
	case pagamento.TipoCaucao:
		if _, err := r.Motoristas.RegistrarCaucao(tx, m); err != nil {
			if !erros.IsTransition(err) {
				return err
			}
			r.Log.Warn(componente, "caução %d paga com motorista %d em %s: flag não alterada", pg.ID, m.ID, m.Status)
		}
		return nil
	case pagamento.TipoSemanal, pagamento.TipoMulta:
		if pg.CobrancaID == nil {
			return erros.Validacao("cobrancaId", "pagamento %d sem cobrança", pg.ID)
		}
		c, err := r.Cobrancas.Repository.BuscarPorID(tx, *pg.CobrancaID)
		if err != nil {
			return err
		}
		if pg.Tipo == pagamento.TipoMulta {
			c.MultaQuitada = true
			return r.Cobrancas.Repository.Salvar(tx, c)
		}
		if err := r.Ledger.MarcarSeQuitada(tx, c, agora); err != nil {
			return err
		}
		return r.Cobrancas.SincronizarInadimplencia(tx, m, agora)
	case pagamento.TipoRescisao:
		if pg.RescisaoID == nil {
			return erros.Validacao("rescisaoId", "pagamento %d sem acerto final", pg.ID)
		}
		res, err := r.Rescisoes.BuscarPorID(tx, *pg.RescisaoID)
		if err != nil {
			return err
		}
		res.Quitada = true
		res.QuitadaEm = &agora
		return r.Rescisoes.Salvar(tx, res)
	}
	return nil
}

// cadastrar chama o sistema externo e grava a flag. Deve rodar com o lock
// do motorista já adquirido.
func (r *Reconciliador) cadastrar(ctx context.Context, m motorista.Motorista) error {
	if r.Cadastro == nil {
		return nil
	}
	if err := r.Cadastro.Registrar(ctx, m); err != nil {
		r.Log.Error(componente, "cadastro externo do motorista %d falhou: %v", m.ID, err)
		return err
	}
	return r.Motoristas.NaTransacao(ctx, m.ID, r.Motoristas.MarcarCadastroExternoTx)
}

// RetentarCadastros reenvia os cadastros externos que falharam.
func (r *Reconciliador) RetentarCadastros(ctx context.Context) (int, error) {
	pendentes, err := r.Motoristas.PendentesCadastroExterno(ctx)
	if err != nil {
		return 0, err
	}
	var (
		n      int
		falhas []error
	)
	for _, p := range pendentes {
		feito, err := r.retentar(ctx, p.ID)
		if err != nil {
			falhas = append(falhas, err)
			continue
		}
		if feito {
			n++
		}
	}
	if n > 0 {
		r.Log.Info(componente, "%d cadastro(s) externo(s) concluído(s) na nova tentativa", n)
	}
	return n, errors.Join(falhas...)
}

func (r *Reconciliador) retentar(ctx context.Context, id uint) (bool, error) {
	unlock := r.Motoristas.Travar(id)
	defer unlock()
	m, err := r.Motoristas.Repository.BuscarPorID(r.DB.WithContext(ctx), id)
	if err != nil {
		return false, err
	}
	if m.CadastroExterno || !m.CaucaoPaga {
		return false, nil
	}
	if err := r.cadastrar(ctx, *m); err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmarManual é a confirmação do operador, com as mesmas garantias do webhook.
func (r *Reconciliador) ConfirmarManual(ctx context.Context, pagamentoID uint) (Reconciliacao, error) {
	pg, err := r.Pagamentos.BuscarGateway(r.DB.WithContext(ctx), pagamentoID)
	if err != nil {
		return Reconciliacao{}, err
	}
	return r.Reconciliar(ctx, pg.ExternalID, gateway.Resultado{Status: gateway.Aprovado, Raw: "manual"})
}
