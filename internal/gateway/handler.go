package gateway

import (
	"net/http"

	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/utils"
	"github.com/shopspring/decimal"
)

// Handler expõe a criação de intenções de pagamento
type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// CriarIntencao: POST /pagamentos
func (h *Handler) CriarIntencao(w http.ResponseWriter, r *http.Request) {
	var req IntencaoInput
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	if c, ok := auth.FromContext(r.Context()); ok {
		req.UserID = c.UserID
		if !c.IsAdmin {
			req.MotoristaID = c.MotoristaID
		}
	}
	pg, err := h.Service.CriarIntencao(r.Context(), req)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, pg)
}

// Regenerar: POST /pagamentos/{id}/regenerar
func (h *Handler) Regenerar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	antigo, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "pagamento não encontrado", http.StatusNotFound)
		return
	}
	if !auth.PodeAcessar(r.Context(), antigo.MotoristaID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	pg, err := h.Service.Regenerar(r.Context(), id)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, pg)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	pg, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "pagamento não encontrado", http.StatusNotFound)
		return
	}
	if !auth.PodeAcessar(r.Context(), pg.MotoristaID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, pg)
}

// ListarPorMotorista: GET /motoristas/{id}/pagamentos
func (h *Handler) ListarPorMotorista(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	lista, err := h.Service.ListarPorMotorista(r.Context(), id)
	if err != nil {
		http.Error(w, "erro ao listar pagamentos", http.StatusInternalServerError)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, lista)
}

// Parcelamento: GET /parcelamento?valor=300
func (h *Handler) Parcelamento(w http.ResponseWriter, r *http.Request) {
	valor, err := decimal.NewFromString(r.URL.Query().Get("valor"))
	if err != nil || !valor.IsPositive() {
		http.Error(w, "valor inválido", http.StatusBadRequest)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, h.Service.Parcelamento(valor))
}
