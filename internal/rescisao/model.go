package rescisao

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rescisao é o acerto final do contrato, criado uma única vez por motorista.
// SaldoFinal negativo significa que o motorista deve além da caução.
type Rescisao struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	MotoristaID uint `gorm:"not null;uniqueIndex" json:"motoristaId"`

	DebitosPendentes decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"debitosPendentes"`
	MultasAcumuladas decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"multasAcumuladas"`
	Danos            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"danos"`
	OutrosDescontos  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"outrosDescontos"`
	ValorCaucao      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valorCaucao"`
	SaldoFinal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"saldoFinal"`

	// Pagamentos semanais ou de multa confirmados pelo gateway depois do acerto.
	Creditos decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"creditos"`

	Observacoes string `gorm:"type:text" json:"observacoes"`
	CriadoPor   uint   `json:"criadoPor"`

	// Quitada só vale para saldo negativo cobrado via gateway.
	Quitada   bool       `gorm:"not null;default:false" json:"quitada"`
	QuitadaEm *time.Time `json:"quitadaEm"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Rescisao) TableName() string { return "rescisoes" }

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Rescisao{})
}
