package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/kennrick69/locacar/internal/erros"
)

// ResponderJSON escreve v como JSON com o status informado.
func ResponderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// IDParam lê um parâmetro numérico da rota.
func IDParam(r *http.Request, nome string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[nome], 10, 64)
	if err != nil || id == 0 {
		return 0, erros.Validacao(nome, "ID inválido")
	}
	return uint(id), nil
}

// DecodificarJSON lê o corpo da requisição em v.
func DecodificarJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return erros.Validacao("payload", "payload inválido")
	}
	return nil
}
