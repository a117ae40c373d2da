package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/chatserver/internal/models"
)

type UserService interface {
	Create(ctx context.Context, in models.CreateUser) (*models.User, error)
	Verify(ctx context.Context, in models.SigninUser) (*models.User, error)
}

type TokenSigner interface {
	Sign(u models.User) (string, error)
}

type AuthHandler struct {
	users  UserService
	signer TokenSigner
}

func NewAuthHandler(users UserService, signer TokenSigner) *AuthHandler {
	return &AuthHandler{users: users, signer: signer}
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusCreated, u)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	u, err := h.users.Verify(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issue(w, r, http.StatusOK, u)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, status int, u *models.User) {
	token, err := h.signer.Sign(*u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{Token: token})
}
