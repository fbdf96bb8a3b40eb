package db

import (
	"fmt"
	"time"

	"github.com/kennrick69/locacar/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN monta a string de conexão do Postgres.
func DSN(cfg config.DBConfig) string {
	var sslMode string
	if cfg.SSLDisable {
		sslMode = " sslmode=disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s", cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode)
}

func ConnectDataBase(cfg config.DBConfig) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("conectar ao banco %s@%s: %w", cfg.Name, cfg.Host, err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return database, nil
}
