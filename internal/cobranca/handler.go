package cobranca

import (
	"net/http"
	"time"

	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/utils"
)

// Handler expõe cobranças, descontos e acréscimos
type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ListarPorMotorista: GET /motoristas/{id}/cobrancas
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
	lista, err := h.Service.Listar(r.Context(), id)
	if err != nil {
		http.Error(w, "erro ao listar cobranças", http.StatusInternalServerError)
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
	c, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "cobrança não encontrada", http.StatusNotFound)
		return
	}
	if !auth.PodeAcessar(r.Context(), c.MotoristaID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, c)
}

// Gerar: POST /motoristas/{id}/cobrancas/gerar (admin)
func (h *Handler) Gerar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req gerarRequest
	if r.ContentLength > 0 {
		if err := utils.DecodificarJSON(r, &req); err != nil {
			erros.Responder(w, err)
			return
		}
	}
	var ate time.Time
	if req.Ate != nil {
		ate = *req.Ate
	}
	criadas, err := h.Service.GerarPendentes(r.Context(), id, ate)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if criadas == nil {
		criadas = []CobrancaSemanal{}
	}
	utils.ResponderJSON(w, http.StatusCreated, criadas)
}

// CriarAvulsa: POST /cobrancas (admin)
func (h *Handler) CriarAvulsa(w http.ResponseWriter, r *http.Request) {
	var req AvulsaInput
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	c, err := h.Service.CriarAvulsa(r.Context(), req)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, c)
}

// SolicitarDesconto: POST /cobrancas/{id}/descontos
func (h *Handler) SolicitarDesconto(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req descontoRequest
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		erros.Responder(w, erros.Validacao("desconto", "%v", err))
		return
	}
	c, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "cobrança não encontrada", http.StatusNotFound)
		return
	}
	if !auth.PodeAcessar(r.Context(), c.MotoristaID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	d, err := h.Service.SolicitarDesconto(r.Context(), id, req.Descricao, req.Valor, req.Comprovante)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, d)
}

// AprovarDesconto: POST /descontos/{id}/aprovar (admin)
func (h *Handler) AprovarDesconto(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	c, err := h.Service.AprovarDesconto(r.Context(), id)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, c)
}

// AdicionarAcrescimo: POST /cobrancas/{id}/acrescimos (admin)
func (h *Handler) AdicionarAcrescimo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req acrescimoRequest
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		erros.Responder(w, erros.Validacao("acrescimo", "%v", err))
		return
	}
	c, err := h.Service.AdicionarAcrescimo(r.Context(), id, req.Descricao, req.Valor)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, c)
}

// AvaliarMultas: POST /motoristas/{id}/multas/avaliar (admin)
func (h *Handler) AvaliarMultas(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req avaliarRequest
	if r.ContentLength > 0 {
		if err := utils.DecodificarJSON(r, &req); err != nil {
			erros.Responder(w, err)
			return
		}
	}
	asOf := h.Service.Agora()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	n, err := h.Service.AvaliarMotorista(r.Context(), id, asOf)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, map[string]int{"alteradas": n})
}
