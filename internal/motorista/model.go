package motorista

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPendente     Status = "pendente"
	StatusEmAnalise    Status = "em_analise"
	StatusAprovado     Status = "aprovado"
	StatusReprovado    Status = "reprovado"
	StatusAtivo        Status = "ativo"
	StatusInadimplente Status = "inadimplente"
	StatusRescindido   Status = "rescindido"
	StatusRecolhido    Status = "recolhido"
)

// Motorista é o cadastro do locatário e o dono do ciclo de vida que libera
// (ou bloqueia) cobrança, pagamento e rescisão.
type Motorista struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"userId"`
	Nome   string `gorm:"size:150;not null" json:"nome"`
	CPF    string `gorm:"size:14;index" json:"cpf"`
	Email  string `gorm:"size:150" json:"email"`

	VeiculoID    *uint           `gorm:"index" json:"veiculoId"`
	ValorSemanal decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"valorSemanal"`

	Status             Status `gorm:"size:20;not null;default:'pendente';index" json:"status"`
	CaucaoPaga         bool   `gorm:"not null;default:false" json:"caucaoPaga"`
	ContratoConfirmado bool   `gorm:"not null;default:false" json:"contratoConfirmado"`

	// Registro no sistema externo, feito uma única vez após a caução.
	CadastroExterno   bool       `gorm:"not null;default:false" json:"cadastroExterno"`
	CadastroExternoEm *time.Time `json:"cadastroExternoEm"`

	DiaCobranca      time.Weekday `gorm:"not null" json:"diaCobranca"`
	DataInicio       *time.Time   `json:"dataInicio"`
	DataRescisao     *time.Time   `json:"dataRescisao"`
	MotivoReprovacao string       `gorm:"size:500" json:"motivoReprovacao"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Motorista{})
}

// EmOperacao indica status em que o motorista gera cobrança semanal.
func (m Motorista) EmOperacao() bool {
	return m.Status == StatusAtivo || m.Status == StatusInadimplente
}

// Encerrado indica contrato já rescindido.
func (m Motorista) Encerrado() bool {
	return m.Status == StatusRescindido || m.Status == StatusRecolhido
}
