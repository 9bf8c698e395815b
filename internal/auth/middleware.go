package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/notes-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be read
// or shadowed by any package that knows the string. Only this package can
// create a key of type contextKey.
type contextKey string

const callerKey contextKey = "caller"

// ErrNoCredentials means the request carried no Authorization header.
var ErrNoCredentials = errors.New("auth: no credentials")

// Authenticator turns a credential into a caller. It is implemented by
// service.AuthService; the middleware only knows this interface.
type Authenticator interface {
	AuthenticateToken(ctx context.Context, token string) (model.Caller, error)
	AuthenticatePassword(ctx context.Context, username, password string) (model.Caller, error)
}

// Authenticate resolves the caller of every request and stores it in the context.
//
//	no Authorization header         → anonymous caller, request continues
//	valid Bearer or Basic header    → that user
//	anything else in the header     → 401, request stops
//
// A bad credential is never downgraded to anonymous: a client that thinks it
// is logged in must find out that it isn't.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := callerFromRequest(r, a)
			if err != nil && !errors.Is(err, ErrNoCredentials) {
				writeUnauthorized(w, "invalid credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireAuth stops anonymous requests with 401. It must run after Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).Authenticated() {
			writeUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller stored by Authenticate, or the
// anonymous caller if there is none.
func CallerFromContext(ctx context.Context) model.Caller {
	caller, ok := ctx.Value(callerKey).(model.Caller)
	if !ok {
		return model.Anonymous
	}
	return caller
}

func callerFromRequest(r *http.Request, a Authenticator) (model.Caller, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return model.Anonymous, ErrNoCredentials
	}

	scheme, value, _ := strings.Cut(header, " ")
	switch strings.ToLower(scheme) {
	case "bearer":
		return a.AuthenticateToken(r.Context(), strings.TrimSpace(value))
	case "basic":
		username, password, ok := r.BasicAuth()
		if !ok {
			return model.Anonymous, errors.New("auth: malformed basic credentials")
		}
		return a.AuthenticatePassword(r.Context(), username, password)
	default:
		return model.Anonymous, errors.New("auth: unsupported authorization scheme")
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="notes-api", Basic realm="notes-api"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
