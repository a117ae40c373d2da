package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/config"
	"github.com/nikhilbhutani/chatserver/internal/models"
	"github.com/nikhilbhutani/chatserver/internal/storage"
	"github.com/nikhilbhutani/chatserver/internal/user"
)

type memberChats struct {
	members map[int64][]int64
}

func (c *memberChats) IsChatMember(_ context.Context, chatID, userID int64) (bool, error) {
	for _, id := range c.members[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (c *memberChats) List(context.Context, int64, int64) ([]models.Chat, error) {
	return []models.Chat{}, nil
}

func (c *memberChats) Create(_ context.Context, wsID int64, in models.CreateChat) (*models.Chat, error) {
	return &models.Chat{ID: 9, WorkspaceID: wsID, Members: in.Members}, nil
}

func (c *memberChats) GetByID(_ context.Context, id int64) (*models.Chat, error) {
	return &models.Chat{ID: id, WorkspaceID: 1, Members: c.members[id]}, nil
}

func (c *memberChats) Update(ctx context.Context, id int64, _ models.UpdateChat) (*models.Chat, error) {
	return c.GetByID(ctx, id)
}

func (c *memberChats) Delete(context.Context, int64) error { return nil }

func (c *memberChats) SendMessage(_ context.Context, chatID int64, sender models.User, in models.CreateMessage) (*models.Message, error) {
	return &models.Message{ID: 1, ChatID: chatID, SenderID: sender.ID, Content: in.Content}, nil
}

func (c *memberChats) ListMessages(context.Context, int64, models.ListMessages) ([]models.Message, error) {
	return []models.Message{}, nil
}

type signinOnly struct{}

func (signinOnly) Create(context.Context, models.CreateUser) (*models.User, error) {
	return nil, user.ErrEmailExists
}

func (signinOnly) Verify(context.Context, models.SigninUser) (*models.User, error) {
	return nil, user.ErrInvalidCredentials
}

type emptyDirectory struct{}

func (emptyDirectory) ListChatUsers(context.Context, int64) ([]models.ChatUser, error) {
	return []models.ChatUser{}, nil
}

func testServer(t *testing.T) (http.Handler, *auth.Issuer) {
	t.Helper()
	signingPEM, err := os.ReadFile("../auth/testdata/private.pem")
	require.NoError(t, err)
	verifyingPEM, err := os.ReadFile("../auth/testdata/public.pem")
	require.NoError(t, err)
	keys, err := auth.LoadKeys(signingPEM, verifyingPEM)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		Limits: config.LimitsConfig{MaxUploadBytes: 1 << 20, AuthRPS: 0.001, AuthBurst: 2},
	}
	rt := NewRouter(cfg, Deps{
		Verifier:  auth.NewVerifier(keys.Verifying),
		Signer:    auth.NewIssuer(keys.Signing),
		Users:     signinOnly{},
		Directory: emptyDirectory{},
		Chats:     &memberChats{members: map[int64][]int64{1: {1, 2}, 5: {2, 3}}},
		Files:     storage.NewFileStore(storage.NewLocalBackend(t.TempDir())),
	})
	return rt.Setup(), auth.NewIssuer(keys.Signing)
}

func TestRouterMembershipScenario(t *testing.T) {
	h, issuer := testServer(t)
	token, err := issuer.Sign(models.User{ID: 1, WorkspaceID: 1, FullName: "Alice", Email: "alice@acme.org"})
	require.NoError(t, err)

	do := func(method, path, authz string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(`{"content":"hi"}`))
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/api/chats/1/messages", "Bearer "+token))
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "/api/chats/1", "Bearer "+token))
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/chats/5/messages", "Bearer "+token))
	require.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/chats/5", "Bearer "+token))

	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/chats/1/messages", ""))
	require.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/users", ""))
	require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/api/chats/1/messages", "Bearer bad-token"))
	require.Equal(t, http.StatusForbidden, do(http.MethodGet, "/api/users", "Bearer bad-token"))

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/api/users", "Bearer "+token))
	require.Equal(t, http.StatusOK, do(http.MethodGet, "/api/chats", "Bearer "+token))
}

func TestRouterServesIssuedFileURLs(t *testing.T) {
	h, issuer := testServer(t)
	token, err := issuer.Sign(models.User{ID: 1, WorkspaceID: 1, FullName: "Alice", Email: "alice@acme.org"})
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "hello.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var urls []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &urls))
	require.Len(t, urls, 1)
	require.True(t, strings.HasPrefix(urls[0], storage.URLPrefix))

	for _, path := range []string{urls[0], "/api" + urls[0]} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "hello", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, urls[0], nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterOperational(t *testing.T) {
	h, _ := testServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterCredentialRateLimit(t *testing.T) {
	h, _ := testServer(t)

	signin := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/signin", strings.NewReader(`{"email":"a@b.c","password":"nope"}`))
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusForbidden, signin())
	require.Equal(t, http.StatusForbidden, signin())
	require.Equal(t, http.StatusTooManyRequests, signin())
}
