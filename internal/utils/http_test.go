package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/kennrick69/locacar/internal/erros"
)

func TestIDParam(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/x/12", nil), map[string]string{"id": "12"})
	id, err := IDParam(req, "id")
	if err != nil || id != 12 {
		t.Fatalf("IDParam = %d, %v", id, err)
	}
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	if _, err := IDParam(req, "id"); !erros.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDecodificarJSON(t *testing.T) {
	var v struct{ A int }
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":3}`))
	if err := DecodificarJSON(req, &v); err != nil || v.A != 3 {
		t.Fatalf("decode: %v %+v", err, v)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := DecodificarJSON(req, &v); !erros.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestResponderJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponderJSON(rec, http.StatusCreated, map[string]string{"ok": "sim"})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"ok":"sim"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}
