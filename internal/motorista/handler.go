package motorista

import (
	"net/http"

	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/utils"
)

// Handler expõe o cadastro e o ciclo de vida do motorista
type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// Registrar cria um cadastro pendente
func (h *Handler) Registrar(w http.ResponseWriter, r *http.Request) {
	var req NovoMotorista
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	if c, ok := auth.FromContext(r.Context()); ok && !c.IsAdmin {
		req.UserID = c.UserID
	}
	m, err := h.Service.Registrar(r.Context(), req)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, m)
}

// Listar aceita ?status= para filtrar
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var status []Status
	if s := r.URL.Query().Get("status"); s != "" {
		status = append(status, Status(s))
	}
	lista, err := h.Service.Listar(r.Context(), status...)
	if err != nil {
		http.Error(w, "erro ao listar motoristas", http.StatusInternalServerError)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, lista)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	m, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "motorista não encontrado", http.StatusNotFound)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, m)
}

// AplicarEvento: POST /motoristas/{id}/eventos
// Dispara enviar_analise (próprio motorista) ou aprovar, reprovar, ativar, recolher, resetar (admin).
func (h *Handler) AplicarEvento(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req eventoRequest
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		erros.Responder(w, erros.Validacao("evento", "%v", err))
		return
	}
	// motorista só envia o próprio cadastro para análise
	if c, ok := auth.FromContext(r.Context()); ok && !c.IsAdmin {
		if req.Evento != EventoEnviarAnalise || !auth.PodeAcessar(r.Context(), id) {
			http.Error(w, "acesso negado", http.StatusForbidden)
			return
		}
	}
	m, err := h.Service.Aplicar(r.Context(), id, req.Evento, req.Motivo)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, m)
}

func (h *Handler) AtribuirVeiculo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req veiculoRequest
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	m, err := h.Service.AtribuirVeiculo(r.Context(), id, req.VeiculoID, req.ValorSemanal)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, m)
}

func (h *Handler) ConfirmarContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	var req contratoRequest
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	m, err := h.Service.ConfirmarContrato(r.Context(), id, req.Confirmado)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, m)
}
