package rescisao

import (
	"net/http"

	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// Liquidar: POST /motoristas/{id}/rescisao (admin)
func (h *Handler) Liquidar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req LiquidarInput
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	req.MotoristaID = id
	req.CriadoPor = auth.UsuarioID(r.Context())
	res, err := h.Service.Liquidar(r.Context(), req)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, res)
}

// Buscar: GET /motoristas/{id}/rescisao
func (h *Handler) Buscar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	res, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "acerto final não encontrado", http.StatusNotFound)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, res)
}
