package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/chatserver/internal/metrics"
	"github.com/nikhilbhutani/chatserver/internal/models"
)

var (
	errMissingAuthorization = errors.New("missing Authorization header")
	errNotBearer            = errors.New("authorization scheme is not Bearer")
	errEmptyBearer          = errors.New("empty bearer token")
)

// TokenVerifier recovers the identity carried by a bearer token.
type TokenVerifier interface {
	Verify(token string) (*models.User, error)
}

// Authenticator is the first guard stage. It verifies the bearer token and
// attaches the identity to the request context.
type Authenticator struct {
	verifier TokenVerifier
}

func NewAuthenticator(v TokenVerifier) *Authenticator {
	return &Authenticator{verifier: v}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := bearerToken(r)
		if err != nil {
			metrics.TokenVerifications.WithLabelValues("missing").Inc()
			slog.WarnContext(r.Context(), "parse Authorization header failed", "error", err, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "parse Authorization header failed: "+err.Error())
			return
		}

		user, err := a.verifier.Verify(tokenStr)
		if err != nil {
			reason := "invalid"
			var te *TokenError
			if errors.As(err, &te) {
				reason = string(te.Reason)
			}
			metrics.TokenVerifications.WithLabelValues(reason).Inc()
			slog.WarnContext(r.Context(), "verify token failed", "reason", reason, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, err.Error())
			return
		}

		metrics.TokenVerifications.WithLabelValues("ok").Inc()
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errEmptyBearer
	}
	return token, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
