package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	AmbienteDesenvolvimento = "development"
	AmbienteProducao        = "production"
)

type DBConfig struct {
	Host       string
	Port       uint
	Name       string
	User       string
	Password   string
	SSLDisable bool
}

type GatewayConfig struct {
	ServerKey string
	Producao  bool
}

type WebhookConfig struct {
	Secret  string
	Workers int
	Fila    int
}

// CadastroConfig aponta para o sistema externo que recebe o motorista após a caução.
type CadastroConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type SchedulerConfig struct {
	Hora       int
	Minuto     int
	Paralelo   int
	Habilitado bool
}

// Config reúne tudo que o processo lê do ambiente na inicialização.
type Config struct {
	Addr      string
	Ambiente  string
	LogLevel  string
	JWTSecret string
	Timezone  string
	DB        DBConfig
	Gateway   GatewayConfig
	Webhook   WebhookConfig
	Cadastro  CadastroConfig
	Scheduler SchedulerConfig
}

// Load carrega o .env (se existir) e monta a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Arquivo .env não encontrado, usando variáveis do sistema")
	}
	return FromEnv()
}

// FromEnv monta a Config apenas a partir das variáveis de ambiente atuais.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:      GetString("ADDR", ":8080"),
		Ambiente:  strings.ToLower(GetString("AMBIENTE", AmbienteDesenvolvimento)),
		LogLevel:  GetString("LOG_LEVEL", "info"),
		JWTSecret: GetString("JWT_SECRET", ""),
		Timezone:  GetString("TZ_COBRANCA", "America/Sao_Paulo"),
		DB: DBConfig{
			Host:       GetString("DB_HOST", "localhost"),
			Port:       uint(GetInt("DB_PORT", 5432)),
			Name:       GetString("DB_NAME", "locacar"),
			User:       GetString("DB_USERNAME", "postgres"),
			Password:   GetString("DB_PASSWORD", "postgres"),
			SSLDisable: GetBool("DB_SSL_MODE_DISABLE", true),
		},
		Gateway: GatewayConfig{
			ServerKey: GetString("GATEWAY_SERVER_KEY", ""),
			Producao:  GetBool("GATEWAY_PRODUCAO", false),
		},
		Webhook: WebhookConfig{
			Secret:  GetString("WEBHOOK_SECRET", ""),
			Workers: GetInt("WEBHOOK_WORKERS", 4),
			Fila:    GetInt("WEBHOOK_FILA", 256),
		},
		Cadastro: CadastroConfig{
			URL:     GetString("CADASTRO_URL", ""),
			Token:   GetString("CADASTRO_TOKEN", ""),
			Timeout: time.Duration(GetInt("CADASTRO_TIMEOUT_SEG", 10)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Hora:       GetInt("SCHEDULER_HORA", 6),
			Minuto:     GetInt("SCHEDULER_MINUTO", 0),
			Paralelo:   GetInt("SCHEDULER_PARALELO", 8),
			Habilitado: GetBool("SCHEDULER_HABILITADO", true),
		},
	}
	return cfg, cfg.Validar()
}

// Producao informa se o processo está configurado para uso real.
func (c Config) Producao() bool { return c.Ambiente == AmbienteProducao }

// Validar recusa combinações que não podem subir.
func (c Config) Validar() error {
	if c.Ambiente != AmbienteDesenvolvimento && c.Ambiente != AmbienteProducao {
		return fmt.Errorf("AMBIENTE inválido: %q", c.Ambiente)
	}
	if c.Producao() {
		if c.Gateway.ServerKey == "" {
			return fmt.Errorf("GATEWAY_SERVER_KEY obrigatória em produção")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET obrigatória em produção")
		}
	}
	if c.Webhook.Workers <= 0 {
		return fmt.Errorf("WEBHOOK_WORKERS deve ser positivo")
	}
	if c.Scheduler.Hora < 0 || c.Scheduler.Hora > 23 || c.Scheduler.Minuto < 0 || c.Scheduler.Minuto > 59 {
		return fmt.Errorf("horário do scheduler inválido: %02d:%02d", c.Scheduler.Hora, c.Scheduler.Minuto)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TZ_COBRANCA inválido: %w", err)
	}
	return nil
}

// Location devolve o fuso usado para datas de cobrança.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	valInt, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return valInt
}

func GetBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return b
}
