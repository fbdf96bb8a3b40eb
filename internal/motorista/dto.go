package motorista

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type NovoMotorista struct {
	UserID      uint          `json:"userId" validate:"required"`
	Nome        string        `json:"nome" validate:"required,max=150"`
	CPF         string        `json:"cpf" validate:"omitempty,max=14"`
	Email       string        `json:"email" validate:"omitempty,email"`
	DiaCobranca *time.Weekday `json:"diaCobranca" validate:"omitempty,min=0,max=6"`
}

type eventoRequest struct {
	Evento Evento `json:"evento" validate:"required"`
	Motivo string `json:"motivo" validate:"max=500"`
}

type veiculoRequest struct {
	VeiculoID    uint            `json:"veiculoId" validate:"required"`
	ValorSemanal decimal.Decimal `json:"valorSemanal"`
}

type contratoRequest struct {
	Confirmado bool `json:"confirmado"`
}
