package erros

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/gorm"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		nome string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validacao", Validacao("valor", "deve ser positivo"), http.StatusBadRequest},
		{"conflito", Conflito("semana duplicada"), http.StatusConflict},
		{"transicao", Transicao("aprovado", "ativar", "caução não paga"), http.StatusUnprocessableEntity},
		{"gateway", Gateway("consultar", errors.New("timeout")), http.StatusBadGateway},
		{"nao encontrado", fmt.Errorf("buscar: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"outro", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("%s: got %d, want %d", c.nome, got, c.want)
		}
	}
}

func TestTiposSobrevivemAoEmbrulho(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("criar pix: %w", Gateway("pix", base))
	if !IsGateway(err) {
		t.Fatal("expected gateway error through wrapping")
	}
	if !errors.Is(err, base) {
		t.Fatal("gateway error must unwrap to its cause")
	}
	if Gateway("noop", nil) != nil {
		t.Fatal("Gateway(nil) must be nil")
	}
	rec := &ReconciliationError{ExternalID: "x1", Motivo: "desconhecido"}
	if !IsReconciliation(fmt.Errorf("wrap: %w", rec)) {
		t.Fatal("expected reconciliation error")
	}
}
