package pagamento

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PagamentoManual é um lançamento feito pelo operador contra uma cobrança.
type PagamentoManual struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CobrancaID    uint            `gorm:"not null;index" json:"cobrancaId"`
	MotoristaID   uint            `gorm:"not null;index" json:"motoristaId"`
	Valor         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valor"`
	DataPagamento time.Time       `gorm:"not null" json:"dataPagamento"`
	Observacao    string          `gorm:"size:500" json:"observacao"`
	CriadoPor     uint            `json:"criadoPor"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (PagamentoManual) TableName() string { return "pagamentos_manuais" }

type Tipo string

const (
	TipoCaucao   Tipo = "caucao"
	TipoSemanal  Tipo = "semanal"
	TipoMulta    Tipo = "multa"
	TipoRescisao Tipo = "rescisao"
)

type Metodo string

const (
	MetodoPix    Metodo = "pix"
	MetodoCartao Metodo = "cartao"
)

type Status string

const (
	StatusPendente  Status = "pendente"
	StatusPago      Status = "pago"
	StatusExpirado  Status = "expirado"
	StatusCancelado Status = "cancelado"
	StatusEstornado Status = "estornado"
	// Recebido pelo gateway sem ser aplicado a nenhuma cobrança; aguarda o operador.
	StatusRevisao   Status = "revisao"
)

// PagamentoGateway é uma intenção de pagamento criada no gateway. Só o
// reconciliador (webhook ou confirmação manual) muda o status depois de criada.
type PagamentoGateway struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	UserID      uint  `gorm:"index" json:"userId"`
	MotoristaID uint  `gorm:"not null;index" json:"motoristaId"`
	CobrancaID  *uint `gorm:"index" json:"cobrancaId"`
	RescisaoID  *uint `gorm:"index" json:"rescisaoId"`

	Tipo   Tipo   `gorm:"size:20;not null;index" json:"tipo"`
	Metodo Metodo `gorm:"size:20;not null" json:"metodo"`

	ValorBase     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valorBase"`
	Parcelas      int             `gorm:"not null;default:1" json:"parcelas"`
	TaxaAcrescimo decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"taxaAcrescimo"`
	ValorTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"valorTotal"`

	Status            Status `gorm:"size:20;not null;default:'pendente';index" json:"status"`
	ExternalID        string `gorm:"size:100;uniqueIndex" json:"externalId"`
	ReferenciaExterna string `gorm:"size:100" json:"referenciaExterna"`
	QRCode            string `gorm:"type:text" json:"qrCode,omitempty"`
	CheckoutRef       string `gorm:"size:255" json:"checkoutRef,omitempty"`
	CheckoutURL       string `gorm:"size:500" json:"checkoutUrl,omitempty"`
	Simulado          bool   `gorm:"not null;default:false" json:"simulado"`
	MotivoRevisao     string `gorm:"size:255" json:"motivoRevisao,omitempty"`

	ExpiraEm         *time.Time `json:"expiraEm"`
	PagoEm           *time.Time `json:"pagoEm"`
	SubstituidoPorID *uint      `json:"substituidoPorId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PagamentoGateway) TableName() string { return "pagamentos_gateway" }

// Vivo indica intenção pendente ainda dentro da validade.
func (p PagamentoGateway) Vivo(agora time.Time) bool {
	return p.Status == StatusPendente && (p.ExpiraEm == nil || agora.Before(*p.ExpiraEm))
}

// Recebido indica dinheiro já confirmado pelo gateway, aplicado ou em revisão.
func (p PagamentoGateway) Recebido() bool {
	return p.Status == StatusPago || p.Status == StatusRevisao
}

// Migrate cria as tabelas no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&PagamentoManual{}, &PagamentoGateway{})
}
