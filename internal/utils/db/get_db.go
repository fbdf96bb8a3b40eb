package db

import (
	"fmt"

	"github.com/kennrick69/locacar/internal/cobranca"
	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/motorista"
	"github.com/kennrick69/locacar/internal/pagamento"
	"github.com/kennrick69/locacar/internal/rescisao"
	"github.com/kennrick69/locacar/internal/webhook"
	"gorm.io/gorm"
)

// GetDB conecta e migra todas as tabelas.
func GetDB(cfg config.DBConfig) (*gorm.DB, error) {
	database, err := ConnectDataBase(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrar(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrar roda o AutoMigrate de cada pacote, na ordem das dependências.
func Migrar(database *gorm.DB) error {
	passos := []struct {
		nome    string
		migrate func(*gorm.DB) error
	}{
		{"motorista", motorista.Migrate},
		{"cobranca", cobranca.Migrate},
		{"pagamento", pagamento.Migrate},
		{"rescisao", rescisao.Migrate},
		{"webhook", webhook.Migrate},
	}
	for _, p := range passos {
		if err := p.migrate(database); err != nil {
			return fmt.Errorf("migrar %s: %w", p.nome, err)
		}
	}
	return nil
}
