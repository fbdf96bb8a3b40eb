// Package notificacao avisa sistemas externos sobre eventos do motorista.
package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/kennrick69/locacar/internal/motorista"
)

const componente = "notificacao"

// Cadastro é o registro do motorista em sistema externo.
type Cadastro interface {
	Registrar(ctx context.Context, m motorista.Motorista) error
}

type cadastroPayload struct {
	MotoristaID uint   `json:"motoristaId"`
	Nome        string `json:"nome"`
	CPF         string `json:"cpf"`
	Email       string `json:"email"`
	VeiculoID   *uint  `json:"veiculoId"`
	Evento      string `json:"evento"`
}

// CadastroHTTP registra o motorista no sistema externo com um POST JSON.
type CadastroHTTP struct {
	URL    string
	Token  string
	Client *http.Client
	Log    *logger.Logger
}

func NovoCadastroHTTP(cfg config.CadastroConfig, log *logger.Logger) *CadastroHTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CadastroHTTP{
		URL:    cfg.URL,
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
		Log:    log,
	}
}

func (c *CadastroHTTP) Registrar(ctx context.Context, m motorista.Motorista) error {
	body, err := json.Marshal(cadastroPayload{
		MotoristaID: m.ID,
		Nome:        m.Nome,
		CPF:         m.CPF,
		Email:       m.Email,
		VeiculoID:   m.VeiculoID,
		Evento:      "caucao_paga",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("enviar cadastro do motorista %d: %w", m.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detalhe, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cadastro do motorista %d: status %d: %s", m.ID, resp.StatusCode, bytes.TrimSpace(detalhe))
	}
	c.Log.Info(componente, "motorista %d registrado no sistema externo", m.ID)
	return nil
}

// CadastroLog só registra no log; usado quando CADASTRO_URL não está configurada.
type CadastroLog struct {
	Log *logger.Logger
}

func (c CadastroLog) Registrar(_ context.Context, m motorista.Motorista) error {
	c.Log.Warn(componente, "CADASTRO_URL ausente: registro externo do motorista %d apenas logado", m.ID)
	return nil
}

// NovoCadastro escolhe o cliente conforme a configuração.
func NovoCadastro(cfg config.CadastroConfig, log *logger.Logger) Cadastro {
	if cfg.URL == "" {
		return CadastroLog{Log: log}
	}
	return NovoCadastroHTTP(cfg, log)
}
