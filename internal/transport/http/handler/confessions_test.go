package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/whisperly-api/internal/config"
	"github.com/whisperly-api/internal/domain"
	jwtinfra "github.com/whisperly-api/internal/infrastructure/jwt"
	"github.com/whisperly-api/internal/transport/http/middleware"
)

// --- mock ---

type mockConfessionSvc struct{ mock.Mock }

func (m *mockConfessionSvc) Create(ctx context.Context, userID, text string) (*domain.Confession, error) {
	args := m.Called(ctx, userID, text)
	if c, _ := args.Get(0).(*domain.Confession); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockConfessionSvc) ListRecent(ctx context.Context) ([]domain.Confession, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Confession), args.Error(1)
}

func (m *mockConfessionSvc) React(ctx context.Context, confessionID, category, userID string) (*domain.Confession, bool, error) {
	args := m.Called(ctx, confessionID, category, userID)
	if c, _ := args.Get(0).(*domain.Confession); c != nil {
		return c, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *mockConfessionSvc) Reply(ctx context.Context, confessionID, text, replierEmail string) (*domain.Confession, error) {
	args := m.Called(ctx, confessionID, text, replierEmail)
	if c, _ := args.Get(0).(*domain.Confession); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// staticResolver returns the same user for any id.
type staticResolver struct{ user *domain.User }

func (s *staticResolver) Get(_ context.Context, _ string) (*domain.User, error) {
	return s.user, nil
}

// bearerReq builds a request carrying a signed token for the given user.
func bearerReq(t *testing.T, p *jwtinfra.Provider, u *domain.User, method, target string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(u.UserID, u.Email, u.Role)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with the auth middleware before serving.
func serveAuthed(p *jwtinfra.Provider, u *domain.User, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p, &staticResolver{user: u})(h).ServeHTTP(w, r)
}

var testUser = &domain.User{UserID: "u1", Email: "a@b.com", Role: domain.RoleUser, Verified: true}

// --- List ---

func TestList_DerivesCountsFromReactorSets(t *testing.T) {
	svc := &mockConfessionSvc{}
	svc.On("ListRecent", mock.Anything).Return([]domain.Confession{
		{
			ConfessionID: "c1",
			Text:         "secret",
			UserID:       "u1",
			LoveUsers:    []string{"u2", "u3"},
			Replies:      []domain.Reply{},
		},
	}, nil)
	h := NewConfessionHandler(svc)
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/confessions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var views []ConfessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].Reactions.Love.Count)
	assert.Equal(t, []string{"u2", "u3"}, views[0].Reactions.Love.Users)
	// Absent categories still serialize as empty sets with zero counts.
	assert.Equal(t, 0, views[0].Reactions.Laugh.Count)
	assert.NotNil(t, views[0].Reactions.Laugh.Users)
	assert.NotNil(t, views[0].Replies)
}

// --- Create ---

func TestCreate_WithoutToken_Unauthorized(t *testing.T) {
	svc := &mockConfessionSvc{}
	h := NewConfessionHandler(svc)
	body, _ := json.Marshal(map[string]string{"text": "secret"})
	r := httptest.NewRequest(http.MethodPost, "/confessions", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_AttributesToResolvedIdentity(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("Create", mock.Anything, "u1", "secret").Return(&domain.Confession{
		ConfessionID: "c1", Text: "secret", UserID: "u1", Replies: []domain.Reply{},
	}, nil)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"text": "secret"})
	r := bearerReq(t, p, testUser, http.MethodPost, "/confessions", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.Create), rr, r)

	require.Equal(t, http.StatusCreated, rr.Code)
	var view ConfessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "c1", view.ID)
	assert.Equal(t, "u1", view.UserID)
	svc.AssertExpectations(t)
}

// --- React ---

func TestReact_Added(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("React", mock.Anything, "c1", "love", "u1").Return(&domain.Confession{
		ConfessionID: "c1", Text: "secret", LoveUsers: []string{"u1"}, Replies: []domain.Reply{},
	}, true, nil)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"type": "love"})
	r := withChiID(bearerReq(t, p, testUser, http.MethodPost, "/confessions/react/c1", body), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.React), rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var env ReactionEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "Added love reaction", env.Message)
	require.NotNil(t, env.Confession)
	assert.Equal(t, 1, env.Confession.Reactions.Love.Count)
}

func TestReact_Removed(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("React", mock.Anything, "c1", "laugh", "u1").Return(&domain.Confession{
		ConfessionID: "c1", Text: "secret", Replies: []domain.Reply{},
	}, false, nil)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"type": "laugh"})
	r := withChiID(bearerReq(t, p, testUser, http.MethodPost, "/confessions/react/c1", body), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.React), rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var env ReactionEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "Removed laugh reaction", env.Message)
	assert.Equal(t, 0, env.Confession.Reactions.Laugh.Count)
}

func TestReact_UnknownCategory(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("React", mock.Anything, "c1", "angry", "u1").
		Return(nil, false, domain.ErrBadRequest)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"type": "angry"})
	r := withChiID(bearerReq(t, p, testUser, http.MethodPost, "/confessions/react/c1", body), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.React), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Reply ---

func TestReply_UsesIdentityEmail(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("Reply", mock.Anything, "c1", "me too", "a@b.com").Return(&domain.Confession{
		ConfessionID: "c1",
		Text:         "secret",
		Replies:      []domain.Reply{{Text: "me too", ReplierEmail: "a@b.com"}},
	}, nil)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"confessionId": "c1", "text": "me too"})
	r := bearerReq(t, p, testUser, http.MethodPost, "/confessions/reply", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.Reply), rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	var env ReplyEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "Reply added successfully!", env.Message)
	require.Len(t, env.Replies, 1)
	assert.Equal(t, "a@b.com", env.Replies[0].ReplierEmail)
}

func TestReply_UnknownConfession(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockConfessionSvc{}
	svc.On("Reply", mock.Anything, "missing", "hi", "a@b.com").
		Return(nil, domain.ErrNotFound)
	h := NewConfessionHandler(svc)

	body, _ := json.Marshal(map[string]string{"confessionId": "missing", "text": "hi"})
	r := bearerReq(t, p, testUser, http.MethodPost, "/confessions/reply", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, testUser, http.HandlerFunc(h.Reply), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
