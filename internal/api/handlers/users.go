package handlers

import (
	"context"
	"net/http"

	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/models"
)

type WorkspaceDirectory interface {
	ListChatUsers(ctx context.Context, wsID int64) ([]models.ChatUser, error)
}

type UserHandler struct {
	dir WorkspaceDirectory
}

func NewUserHandler(dir WorkspaceDirectory) *UserHandler {
	return &UserHandler{dir: dir}
}

// List returns every user in the caller's workspace.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())

	users, err := h.dir.ListChatUsers(r.Context(), me.WorkspaceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
