package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims do token: RBAC simples (IsAdmin) e o motorista vinculado ao usuário.
type Claims struct {
	UserID      uint `json:"userId"`
	IsAdmin     bool `json:"isAdmin"`
	MotoristaID uint `json:"motoristaId,omitempty"`
	jwt.RegisteredClaims
}

// TTL padrão do token
const AccessTTL = 24 * time.Hour

const issuer = "locacar"

// Emissor assina e valida tokens HS256 com o segredo da aplicação.
type Emissor struct {
	segredo []byte
	ttl     time.Duration
}

func NovoEmissor(segredo string, ttl time.Duration) (*Emissor, error) {
	if segredo == "" {
		return nil, errors.New("JWT_SECRET não definida")
	}
	if ttl <= 0 {
		ttl = AccessTTL
	}
	return &Emissor{segredo: []byte(segredo), ttl: ttl}, nil
}

// GerarToken gera um JWT para o usuário
func (e *Emissor) GerarToken(userID uint, isAdmin bool, motoristaID uint) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		IsAdmin:     isAdmin,
		MotoristaID: motoristaID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(e.segredo)
}

// ValidarToken valida o token e retorna as claims
func (e *Emissor) ValidarToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return e.segredo, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("token inválido ou expirado: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("não foi possível extrair claims")
	}
	return claims, nil
}
