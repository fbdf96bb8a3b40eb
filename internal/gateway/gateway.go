// Package gateway integra o provedor de pagamentos (Pix e cartão) e cria as
// intenções de pagamento persistidas no livro.
package gateway

import (
	"context"
	"fmt"

	"github.com/kennrick69/locacar/internal/config"
	"github.com/kennrick69/locacar/internal/logger"
	"github.com/shopspring/decimal"
)

type Pagador struct {
	Nome  string
	Email string
	CPF   string
}

type PedidoPix struct {
	Referencia string
	Valor      decimal.Decimal
	Descricao  string
	Pagador    Pagador

	// Minutos de validade do QR.
	ExpiraMinutos int
}

type PedidoCheckout struct {
	Referencia  string
	Valor       decimal.Decimal
	Parcelas    int
	Descricao   string
	Pagador     Pagador
	ExpiraHoras int
}

type Pix struct {
	ExternalID string
	QRCode     string
}

type Checkout struct {
	ExternalID  string
	CheckoutRef string
	URL         string
}

// Gateway é o provedor de pagamentos. A implementação é escolhida uma vez, em Novo.
type Gateway interface {
	Nome() string
	Simulado() bool
	CriarPix(ctx context.Context, p PedidoPix) (Pix, error)
	CriarCheckout(ctx context.Context, p PedidoCheckout) (Checkout, error)
	Consultar(ctx context.Context, externalID string) (Resultado, error)
}

// Novo escolhe o gateway. Sem chave, só o ambiente de desenvolvimento pode
// usar o simulado; em produção isso é erro de configuração.
func Novo(cfg config.GatewayConfig, producao bool, log *logger.Logger) (Gateway, error) {
	if cfg.ServerKey == "" {
		if producao {
			return nil, fmt.Errorf("gateway: GATEWAY_SERVER_KEY obrigatória em produção")
		}
		log.Warn("gateway", "sem credenciais: usando gateway simulado")
		return NewSimulado(), nil
	}
	return NewMidtrans(cfg.ServerKey, cfg.Producao), nil
}
