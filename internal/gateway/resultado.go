package gateway

import "strings"

// Status é o resultado normalizado reportado pelo gateway.
type Status int

const (
	Desconhecido Status = iota
	Aprovado
	Pendente
	Rejeitado
	Cancelado
	Estornado
)

var nomesStatus = map[Status]string{
	Desconhecido: "desconhecido",
	Aprovado:     "aprovado",
	Pendente:     "pendente",
	Rejeitado:    "rejeitado",
	Cancelado:    "cancelado",
	Estornado:    "estornado",
}

func (s Status) String() string { return nomesStatus[s] }

// Resultado carrega o status normalizado e o texto original do gateway.
type Resultado struct {
	Status Status
	Raw    string
}

var mapaStatus = map[string]Status{
	"approved":     Aprovado,
	"settlement":   Aprovado,
	"capture":      Aprovado,
	"paid":         Aprovado,
	"pending":      Pendente,
	"in_process":   Pendente,
	"authorized":   Pendente,
	"rejected":     Rejeitado,
	"deny":         Rejeitado,
	"failure":      Rejeitado,
	"cancelled":    Cancelado,
	"canceled":     Cancelado,
	"cancel":       Cancelado,
	"expire":       Cancelado,
	"expired":      Cancelado,
	"refunded":     Estornado,
	"refund":       Estornado,
	"charged_back": Estornado,
	"chargeback":   Estornado,
}

// Mapear traduz o status textual do gateway. Qualquer outro valor é Desconhecido.
func Mapear(raw string) Resultado {
	st, ok := mapaStatus[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		st = Desconhecido
	}
	return Resultado{Status: st, Raw: raw}
}
