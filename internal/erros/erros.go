// Package erros define a taxonomia de erros do núcleo de cobrança.
package erros

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ValidationError indica entrada malformada (valor não positivo, dia ausente...).
type ValidationError struct {
	Campo string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Campo == "" {
		return "validação: " + e.Msg
	}
	return fmt.Sprintf("validação: %s: %s", e.Campo, e.Msg)
}

// InvalidTransitionError indica que a pré-condição de um evento do ciclo de vida não foi atendida.
type InvalidTransitionError struct {
	De     string
	Evento string
	Motivo string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transição inválida: evento %q a partir de %q: %s", e.Evento, e.De, e.Motivo)
}

// ConflictError cobre semana duplicada, pagamento acima do saldo e recobrança de parcela quitada.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return "conflito: " + e.Msg }

// GatewayError embrulha falhas da chamada externa. Nunca deve ser tratado como sucesso.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }

// ReconciliationError indica notificação que referencia pagamento local inexistente.
type ReconciliationError struct {
	ExternalID string
	Motivo     string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliação: external_id=%s: %s", e.ExternalID, e.Motivo)
}

// Atalhos de construção.

func Validacao(campo, format string, args ...any) error {
	return &ValidationError{Campo: campo, Msg: fmt.Sprintf(format, args...)}
}

func Conflito(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func Transicao(de, evento, motivo string) error {
	return &InvalidTransitionError{De: de, Evento: evento, Motivo: motivo}
}

func Gateway(op string, err error) error {
	if err == nil {
		return nil
	}
	return &GatewayError{Op: op, Err: err}
}

// ErrNaoEncontrado é devolvido pelos repositórios quando o registro não existe.
var ErrNaoEncontrado = gorm.ErrRecordNotFound

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsGateway(err error) bool {
	var e *GatewayError
	return errors.As(err, &e)
}

func IsReconciliation(err error) bool {
	var e *ReconciliationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// HTTPStatus traduz o erro para o status usado pelos handlers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err), IsReconciliation(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsTransition(err):
		return http.StatusUnprocessableEntity
	case IsGateway(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Responder escreve o erro com o status apropriado.
func Responder(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), HTTPStatus(err))
}
