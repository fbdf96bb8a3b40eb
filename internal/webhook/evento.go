// Package webhook recebe as notificações do gateway e reconcilia o livro de
// pagamentos com o que o gateway reporta.
package webhook

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StatusEvento string

const (
	EventoRecebido   StatusEvento = "recebido"
	EventoProcessado StatusEvento = "processado"
	EventoIgnorado   StatusEvento = "ignorado"
	EventoErro       StatusEvento = "erro"
	// Sem pagamento local para o external_id; não volta para a fila.
	EventoRevisao    StatusEvento = "revisao"
)

// EventoGateway registra cada entrega recebida, com o corpo original.
type EventoGateway struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ExternalID       string         `gorm:"size:100;index" json:"externalId"`
	RequestID        string         `gorm:"size:100" json:"requestId"`
	Origem           string         `gorm:"size:20;not null;default:'webhook'" json:"origem"`
	TipoNotificacao  string         `gorm:"size:60" json:"tipoNotificacao"`
	StatusReportado  string         `gorm:"size:40" json:"statusReportado"`
	AssinaturaValida bool           `gorm:"not null;default:false" json:"assinaturaValida"`
	Payload          datatypes.JSON `json:"payload"`
	Status           StatusEvento   `gorm:"size:20;not null;default:'recebido';index" json:"status"`
	Erro             string         `gorm:"type:text" json:"erro,omitempty"`
	PagamentoID      *uint          `gorm:"index" json:"pagamentoId"`
	Tentativas       int            `gorm:"not null;default:0" json:"tentativas"`
	ProcessadoEm     *time.Time     `json:"processadoEm"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (EventoGateway) TableName() string { return "eventos_gateway" }

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventoGateway{})
}

type Repository interface {
	Criar(db *gorm.DB, e *EventoGateway) error
	Salvar(db *gorm.DB, e *EventoGateway) error
	BuscarPorID(db *gorm.DB, id uint) (*EventoGateway, error)
	ListarPorStatus(db *gorm.DB, status ...StatusEvento) ([]EventoGateway, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Criar(db *gorm.DB, e *EventoGateway) error {
	return db.Create(e).Error
}

func (r *repositoryImpl) Salvar(db *gorm.DB, e *EventoGateway) error {
	return db.Save(e).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*EventoGateway, error) {
	var e EventoGateway
	err := db.First(&e, id).Error
	return &e, err
}

func (r *repositoryImpl) ListarPorStatus(db *gorm.DB, status ...StatusEvento) ([]EventoGateway, error) {
	var lista []EventoGateway
	q := db.Order("id DESC")
	if len(status) > 0 {
		q = q.Where("status IN ?", status)
	}
	err := q.Find(&lista).Error
	return lista, err
}
