package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/chatserver/internal/metrics"
)

// Guard is an authorization stage that needs an authenticated identity in the
// request context. A Guard is not a plain middleware: the only way to mount it
// is Authenticator.Require, which always runs token verification first.
type Guard struct {
	name string
	wrap func(next http.Handler) http.Handler
}

func (g Guard) String() string { return g.name }

// Require returns middleware running Authenticate and then each guard in order.
func (a *Authenticator) Require(guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := next
		for i := len(guards) - 1; i >= 0; i-- {
			h = guards[i].wrap(h)
		}
		return a.Authenticate(h)
	}
}

// MembershipError is returned when a user is not allowed into a chat.
type MembershipError struct {
	UserID int64
	ChatID int64
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("user %d is not a member of chat %d", e.UserID, e.ChatID)
}

// MembershipOracle answers whether a user belongs to a chat.
type MembershipOracle interface {
	IsChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}

// ChatMember guards routes carrying a chat id in the URL parameter param.
// Membership is looked up on every request.
func ChatMember(oracle MembershipOracle, param string) Guard {
	return Guard{
		name: "chat-member:" + param,
		wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user := IdentityFromContext(r.Context())
				if user == nil {
					writeError(w, http.StatusInternalServerError, "no identity in request context")
					return
				}

				chatID, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
				if err != nil || chatID <= 0 {
					writeError(w, http.StatusBadRequest, "invalid chat id")
					return
				}

				ok, err := oracle.IsChatMember(r.Context(), chatID, user.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "membership lookup failed", "chat_id", chatID, "user_id", user.ID, "error", err)
				}
				if err != nil || !ok {
					metrics.MembershipChecks.WithLabelValues("denied").Inc()
					writeError(w, http.StatusBadRequest, (&MembershipError{UserID: user.ID, ChatID: chatID}).Error())
					return
				}

				metrics.MembershipChecks.WithLabelValues("allowed").Inc()
				next.ServeHTTP(w, r)
			})
		},
	}
}
