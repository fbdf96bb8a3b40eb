package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// Middleware exige um Bearer token válido e coloca as claims no contexto.
func (e *Emissor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		claims, err := e.ValidarToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "Token inválido", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ComClaims(r.Context(), *claims)))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := FromContext(r.Context()); !ok || !c.IsAdmin {
			http.Error(w, "Forbidden (admin only)", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminFunc é RequireAdmin para rotas registradas com HandleFunc.
func RequireAdminFunc(next http.HandlerFunc) http.HandlerFunc {
	return RequireAdmin(next).ServeHTTP
}

func ComClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok
}

// PodeAcessar: admin vê tudo; motorista só os próprios dados.
// Sem claims no contexto (rota sem middleware) o acesso é liberado.
func PodeAcessar(ctx context.Context, motoristaID uint) bool {
	c, ok := FromContext(ctx)
	if !ok {
		return true
	}
	return c.IsAdmin || (c.MotoristaID != 0 && c.MotoristaID == motoristaID)
}

// UsuarioID devolve o usuário autenticado, 0 se ausente.
func UsuarioID(ctx context.Context) uint {
	c, _ := FromContext(ctx)
	return c.UserID
}
