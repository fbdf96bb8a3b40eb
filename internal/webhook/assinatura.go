package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Assinatura são as partes do cabeçalho x-signature: "ts=...,v1=...".
type Assinatura struct {
	TS string
	V1 string
}

func LerAssinatura(header string) (Assinatura, bool) {
	var a Assinatura
	for _, parte := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(parte), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			a.TS = strings.TrimSpace(v)
		case "v1":
			a.V1 = strings.TrimSpace(v)
		}
	}
	return a, a.TS != "" && a.V1 != ""
}

func manifesto(externalID, requestID, ts string) string {
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", externalID, requestID, ts)
}

// Assinar calcula o HMAC-SHA256 hexadecimal do manifesto.
func Assinar(segredo, externalID, requestID, ts string) string {
	m := hmac.New(sha256.New, []byte(segredo))
	m.Write([]byte(manifesto(externalID, requestID, ts)))
	return hex.EncodeToString(m.Sum(nil))
}

// Verificar confere a assinatura em tempo constante.
func Verificar(segredo, header, externalID, requestID string) bool {
	a, ok := LerAssinatura(header)
	if !ok || segredo == "" {
		return false
	}
	esperado := Assinar(segredo, externalID, requestID, a.TS)
	return hmac.Equal([]byte(esperado), []byte(strings.ToLower(a.V1)))
}
