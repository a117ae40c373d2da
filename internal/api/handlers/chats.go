package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/models"
)

type ChatService interface {
	List(ctx context.Context, wsID, userID int64) ([]models.Chat, error)
	Create(ctx context.Context, wsID int64, in models.CreateChat) (*models.Chat, error)
	GetByID(ctx context.Context, id int64) (*models.Chat, error)
	Update(ctx context.Context, id int64, in models.UpdateChat) (*models.Chat, error)
	Delete(ctx context.Context, id int64) error
	SendMessage(ctx context.Context, chatID int64, sender models.User, in models.CreateMessage) (*models.Message, error)
	ListMessages(ctx context.Context, chatID int64, in models.ListMessages) ([]models.Message, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// chatID reads the {id} parameter. Chat routes sit behind the membership
// guard, which has already rejected ids that do not parse.
func chatID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())

	chats, err := h.svc.List(r.Context(), me.WorkspaceID, me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())

	var req models.CreateChat
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.svc.Create(r.Context(), me.WorkspaceID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := chatID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChatHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := chatID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}

	var req models.UpdateChat
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := chatID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	me := auth.IdentityFromContext(r.Context())
	id, ok := chatID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}

	var req models.CreateMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), id, *me, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := chatID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
		return
	}

	var req models.ListMessages
	q := r.URL.Query()
	if v := q.Get("last_id"); v != "" {
		lastID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || lastID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid last_id"})
			return
		}
		req.LastID = &lastID
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		req.Limit = limit
	}

	msgs, err := h.svc.ListMessages(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
