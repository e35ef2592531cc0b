package middleware

import (
	"net/http"

	"github.com/qplayer/tokenauth"
)

// Authenticate resolves the request's principal once and installs it in the
// request context. A missing or invalid token never fails the request; the
// handler simply sees no principal.
func Authenticate(engine *tokenauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			p, err := engine.Authenticate(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(tokenauth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePrincipal answers 401 when no principal was installed upstream.
// The response never says why.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tokenauth.PrincipalFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Guard is Authenticate followed by RequirePrincipal.
func Guard(engine *tokenauth.Engine) func(http.Handler) http.Handler {
	authenticate := Authenticate(engine)
	return func(next http.Handler) http.Handler {
		return authenticate(RequirePrincipal(next))
	}
}
