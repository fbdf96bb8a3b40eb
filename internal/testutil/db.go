// Package testutil monta bancos SQLite em memória para os testes de pacote.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NovoDB abre um banco isolado por teste e migra os modelos informados.
// Uma única conexão: as transações ficam serializadas como num lock de linha.
func NovoDB(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("abrir sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrar: %v", err)
		}
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Relogio é um relógio manual para os serviços que recebem `Agora`.
type Relogio struct {
	T time.Time
}

func (r *Relogio) Agora() time.Time { return r.T }

func (r *Relogio) Avancar(d time.Duration) { r.T = r.T.Add(d) }

// Data monta uma data UTC à meia-noite.
func Data(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
