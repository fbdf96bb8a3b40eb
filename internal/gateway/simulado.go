package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kennrick69/locacar/internal/dinheiro"
)

// Simulado gera dados determinísticos a partir da referência. O status de
// cada transação começa pendente e muda via Definir.
type Simulado struct {
	mu     sync.Mutex
	status map[string]Resultado
	// Falha, quando definida, é devolvida por todas as chamadas.
	Falha error
}

func NewSimulado() *Simulado {
	return &Simulado{status: make(map[string]Resultado)}
}

func (s *Simulado) Nome() string { return "simulado" }
func (s *Simulado) Simulado() bool { return true }

func hash(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])[:20]
}

func (s *Simulado) CriarPix(_ context.Context, p PedidoPix) (Pix, error) {
	if s.Falha != nil {
		return Pix{}, s.Falha
	}
	id := "SIM-PIX-" + hash(p.Referencia)
	s.registrar(id)
	return Pix{
		ExternalID: id,
		QRCode:     fmt.Sprintf("00020126SIMULADO%s5204000053039865406%d5802BR6304", hash(p.Referencia), dinheiro.Centavos(p.Valor)),
	}, nil
}

func (s *Simulado) CriarCheckout(_ context.Context, p PedidoCheckout) (Checkout, error) {
	if s.Falha != nil {
		return Checkout{}, s.Falha
	}
	id := "SIM-CARD-" + hash(p.Referencia)
	s.registrar(id)
	return Checkout{
		ExternalID:  id,
		CheckoutRef: "sim_" + hash(p.Referencia+"/checkout"),
		URL:         "https://simulado.invalid/checkout/" + id,
	}, nil
}

func (s *Simulado) Consultar(_ context.Context, externalID string) (Resultado, error) {
	if s.Falha != nil {
		return Resultado{}, s.Falha
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.status[externalID]
	if !ok {
		return Resultado{Status: Desconhecido}, nil
	}
	return r, nil
}

// Definir muda o status reportado por Consultar.
func (s *Simulado) Definir(externalID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[externalID] = Mapear(raw)
}

func (s *Simulado) registrar(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.status[id]; !ok {
		s.status[id] = Mapear("pending")
	}
}
