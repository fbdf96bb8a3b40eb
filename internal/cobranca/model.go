package cobranca

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CobrancaSemanal é a cobrança de uma semana de aluguel. Nunca é apagada.
type CobrancaSemanal struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	MotoristaID      uint      `gorm:"not null;uniqueIndex:idx_cobranca_motorista_semana" json:"motoristaId"`
	SemanaReferencia time.Time `gorm:"not null;uniqueIndex:idx_cobranca_motorista_semana" json:"semanaReferencia"`

	ValorBase          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valorBase"`
	DescontosAprovados decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"descontosAprovados"`
	CreditoAnterior    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"creditoAnterior"`
	Acrescimos         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"acrescimos"`
	Multa              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"multa"`
	ValorFinal         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valorFinal"`

	// Multa diferida fica registrada mas fora do ValorFinal até o acerto.
	MultaDiferida bool `gorm:"not null;default:false" json:"multaDiferida"`
	MultaQuitada  bool `gorm:"not null;default:false" json:"multaQuitada"`

	Paga          bool       `gorm:"not null;default:false;index" json:"paga"`
	DataPagamento *time.Time `json:"dataPagamento"`

	Proporcional bool   `gorm:"not null;default:false" json:"proporcional"`
	DiasCobrados int    `gorm:"not null;default:7" json:"diasCobrados"`
	Observacao   string `gorm:"size:500" json:"observacao"`

	ItensDesconto  []Desconto  `gorm:"foreignKey:CobrancaID" json:"itensDesconto,omitempty"`
	ItensAcrescimo []Acrescimo `gorm:"foreignKey:CobrancaID" json:"itensAcrescimo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Desconto solicitado pelo motorista (manutenção paga do bolso, por exemplo).
// Só entra no ValorFinal depois de aprovado.
type Desconto struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CobrancaID  uint            `gorm:"not null;index" json:"cobrancaId"`
	MotoristaID uint            `gorm:"not null;index" json:"motoristaId"`
	Descricao   string          `gorm:"size:255;not null" json:"descricao"`
	Valor       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	Comprovante string          `gorm:"size:500" json:"comprovante"`
	Aprovado    bool            `gorm:"not null;default:false" json:"aprovado"`
	AprovadoEm  *time.Time      `json:"aprovadoEm"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Acrescimo lançado pelo administrador sobre uma cobrança.
type Acrescimo struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CobrancaID uint            `gorm:"not null;index" json:"cobrancaId"`
	Descricao  string          `gorm:"size:255;not null" json:"descricao"`
	Valor      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (CobrancaSemanal) TableName() string { return "cobrancas_semanais" }

// Migrate cria as tabelas no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CobrancaSemanal{}, &Desconto{}, &Acrescimo{})
}
