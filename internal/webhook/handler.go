package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const limiteCorpo = 1 << 20

type Handler struct {
	DB            *gorm.DB
	Eventos       Repository
	Worker        *Worker
	Reconciliador *Reconciliador
	Segredo       string
	Log           *logger.Logger
}

func NewHandler(db *gorm.DB, w *Worker, rec *Reconciliador, segredo string, log *logger.Logger) *Handler {
	return &Handler{DB: db, Eventos: NewRepository(), Worker: w, Reconciliador: rec, Segredo: segredo, Log: log}
}

// notificacao cobre os formatos aceitos: {"type","data":{"id"}},
// {"order_id","transaction_status"} e {"externalId","status"}.
type notificacao struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	ExternalID        string `json:"externalId"`
	Status            string `json:"status"`
	Evento            string `json:"event"`
}

type lida struct {
	externalID string
	tipo       string
	status     string
}

func lerNotificacao(corpo []byte, r *http.Request) lida {
	var n notificacao
	_ = json.Unmarshal(corpo, &n)

	var out lida
	switch {
	case n.OrderID != "":
		out = lida{externalID: n.OrderID, tipo: "payment", status: n.TransactionStatus}
	case len(n.Data.ID) > 0:
		out = lida{externalID: strings.Trim(string(n.Data.ID), `" `), tipo: n.Type, status: n.Action}
	case n.ExternalID != "":
		out = lida{externalID: n.ExternalID, tipo: n.Evento, status: n.Status}
	}

	q := r.URL.Query()
	if out.externalID == "" {
		out.externalID = q.Get("data.id")
	}
	if out.externalID == "" {
		out.externalID = q.Get("id")
	}
	if out.tipo == "" {
		out.tipo = q.Get("type")
	}
	out.externalID = strings.TrimSpace(out.externalID)
	return out
}

// Receber: POST /webhook/gateway
// Responde 200 sempre; o processamento acontece no worker.
func (h *Handler) Receber(w http.ResponseWriter, r *http.Request) {
	corpo, err := io.ReadAll(io.LimitReader(r.Body, limiteCorpo))
	if err != nil {
		h.Log.Warn(componente, "ler corpo da notificação: %v", err)
	}
	n := lerNotificacao(corpo, r)
	requestID := r.Header.Get("x-request-id")

	e := &EventoGateway{
		ExternalID:      n.externalID,
		RequestID:       requestID,
		Origem:          "webhook",
		TipoNotificacao: n.tipo,
		StatusReportado: n.status,
		Payload:         payload(corpo),
		Status:          EventoRecebido,
	}
	if h.Segredo != "" {
		e.AssinaturaValida = Verificar(h.Segredo, r.Header.Get("x-signature"), n.externalID, requestID)
		if !e.AssinaturaValida {
			h.Log.Warn(componente, "assinatura divergente para %s (request %s)", n.externalID, requestID)
		}
	}
	if n.externalID == "" {
		e.Status = EventoIgnorado
		e.Erro = "notificação sem identificador"
	}

	if err := h.Eventos.Criar(h.DB.WithContext(r.Context()), e); err != nil {
		h.Log.Error(componente, "gravar notificação %s: %v", n.externalID, err)
	} else if e.Status == EventoRecebido {
		h.Worker.Enfileirar(e.ID)
	}
	utils.ResponderJSON(w, http.StatusOK, map[string]bool{"recebido": true})
}

func payload(corpo []byte) datatypes.JSON {
	if len(corpo) == 0 {
		return nil
	}
	if json.Valid(corpo) {
		return datatypes.JSON(corpo)
	}
	bruto, _ := json.Marshal(string(corpo))
	return datatypes.JSON(bruto)
}

type pendencias struct {
	Eventos    []EventoGateway              `json:"eventos"`
	Pagamentos []pagamento.PagamentoGateway `json:"pagamentos"`
}

// Pendencias: GET /webhook/pendencias (admin)
// Eventos com erro ou sem pagamento local, e pagamentos recebidos em revisão.
func (h *Handler) Pendencias(w http.ResponseWriter, r *http.Request) {
	db := h.DB.WithContext(r.Context())
	eventos, err := h.Eventos.ListarPorStatus(db, EventoErro, EventoRevisao)
	if err != nil {
		http.Error(w, "erro ao listar pendências", http.StatusInternalServerError)
		return
	}
	pagamentos, err := h.Reconciliador.Pagamentos.ListarPorStatus(db, pagamento.StatusRevisao)
	if err != nil {
		http.Error(w, "erro ao listar pendências", http.StatusInternalServerError)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, pendencias{Eventos: eventos, Pagamentos: pagamentos})
}

// Confirmar: POST /pagamentos/{id}/confirmar (admin)
func (h *Handler) Confirmar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	rec, err := h.Reconciliador.ConfirmarManual(r.Context(), id)
	if err != nil {
		erros.Responder(w, err)
		return
	}

	e := &EventoGateway{
		Origem:          "manual",
		TipoNotificacao: "confirmacao",
		StatusReportado: "manual",
		PagamentoID:     &rec.PagamentoID,
		Status:          EventoIgnorado,
	}
	if rec.Efeito.Mudou() {
		e.Status = EventoProcessado
	}
	if pg, err := h.Reconciliador.Pagamentos.BuscarGateway(h.DB.WithContext(r.Context()), id); err == nil {
		e.ExternalID = pg.ExternalID
	}
	if err := h.Eventos.Criar(h.DB.WithContext(r.Context()), e); err != nil {
		h.Log.Error(componente, "gravar confirmação manual do pagamento %d: %v", id, err)
	}
	utils.ResponderJSON(w, http.StatusOK, rec)
}
