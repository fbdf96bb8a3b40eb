package cobranca

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type gerarRequest struct {
	Ate *time.Time `json:"ate"`
}

type descontoRequest struct {
	Descricao   string          `json:"descricao" validate:"required,max=255"`
	Valor       decimal.Decimal `json:"valor"`
	Comprovante string          `json:"comprovante" validate:"max=500"`
}

type acrescimoRequest struct {
	Descricao string          `json:"descricao" validate:"required,max=255"`
	Valor     decimal.Decimal `json:"valor"`
}

type avaliarRequest struct {
	AsOf *time.Time `json:"asOf"`
}
