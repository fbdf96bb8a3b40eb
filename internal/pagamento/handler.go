package pagamento

import (
	"net/http"

	"github.com/kennrick69/locacar/internal/auth"
	"github.com/kennrick69/locacar/internal/erros"
	"github.com/kennrick69/locacar/internal/utils"
)

// Handler expõe o livro de pagamentos
type Handler struct {
	Ledger *Ledger
}

func NewHandler(l *Ledger) *Handler {
	return &Handler{Ledger: l}
}

// RegistrarManual: POST /cobrancas/{id}/pagamentos (admin)
func (h *Handler) RegistrarManual(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	var req ManualInput
	if err := utils.DecodificarJSON(r, &req); err != nil {
		erros.Responder(w, err)
		return
	}
	req.CobrancaID = id
	req.CriadoPor = auth.UsuarioID(r.Context())
	p, err := h.Ledger.RegistrarPagamentoManual(r.Context(), req)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusCreated, p)
}

// ListarManuais: GET /cobrancas/{id}/pagamentos
func (h *Handler) ListarManuais(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	c, err := h.Ledger.Cobrancas.Buscar(r.Context(), id)
	if err != nil {
		http.Error(w, "cobrança não encontrada", http.StatusNotFound)
		return
	}
	if !auth.PodeAcessar(r.Context(), c.MotoristaID) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	lista, err := h.Ledger.ListarManuais(r.Context(), id)
	if err != nil {
		http.Error(w, "erro ao listar pagamentos", http.StatusInternalServerError)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, lista)
}

// ExcluirManual: DELETE /pagamentos-manuais/{id} (admin)
func (h *Handler) ExcluirManual(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if err := h.Ledger.ExcluirPagamentoManual(r.Context(), id); err != nil {
		erros.Responder(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Saldo: GET /motoristas/{id}/saldo
func (h *Handler) Saldo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	s, err := h.Ledger.SaldoMotorista(r.Context(), id)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, s)
}

// Caucao: GET /motoristas/{id}/caucao
func (h *Handler) Caucao(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		erros.Responder(w, err)
		return
	}
	if !auth.PodeAcessar(r.Context(), id) {
		http.Error(w, "acesso negado", http.StatusForbidden)
		return
	}
	s, err := h.Ledger.Caucao(r.Context(), id)
	if err != nil {
		erros.Responder(w, err)
		return
	}
	utils.ResponderJSON(w, http.StatusOK, s)
}
