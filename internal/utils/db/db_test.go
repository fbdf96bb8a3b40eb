package db

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/webhook"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5433, Name: "locacar", User: "u", Password: "p", SSLDisable: true}
	want := "host=db user=u password=p dbname=locacar port=5433 sslmode=disable"
	if got := DSN(cfg); got != want {
		t.Errorf("DSN = %q", got)
	}
	cfg.SSLDisable = false
	if got := DSN(cfg); got != "host=db user=u password=p dbname=locacar port=5433" {
		t.Errorf("DSN without sslmode = %q", got)
	}
}

func TestMigrarCriaTodasAsTabelas(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrar(database); err != nil {
		t.Fatalf("Migrar: %v", err)
	}
	for _, tabela := range []string{"motoristas", "cobrancas_semanais", "descontos", "acrescimos", "pagamentos_manuais", "pagamentos_gateway", "rescisoes"} {
		if !database.Migrator().HasTable(tabela) {
			t.Errorf("table %s missing", tabela)
		}
	}
	if !database.Migrator().HasTable(&webhook.EventoGateway{}) {
		t.Error("eventos_gateway missing")
	}
}
