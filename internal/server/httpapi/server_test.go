package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/server/models"
	"invisiblewallet/internal/wallet"
)

type fakeUsers struct {
	signupErr error
	loginErr  error
	user      *models.User
}

func (f *fakeUsers) Signup(_ context.Context, email, _ string) (*models.User, string, error) {
	if f.signupErr != nil {
		return nil, "", f.signupErr
	}
	return &models.User{ID: "u-1", Email: email}, "tok-signup", nil
}

func (f *fakeUsers) Login(_ context.Context, email, _ string) (*models.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	return &models.User{ID: "u-1", Email: email}, "tok-login", nil
}

func (f *fakeUsers) GetProfile(_ context.Context, _ string) (*models.User, error) {
	if f.user == nil {
		return nil, common.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) VerifyToken(_ context.Context, token string) (string, error) {
	if token != "tok-valid" {
		return "", common.ErrInvalidToken
	}
	return "u-1", nil
}

type fakeWallets struct {
	updateErr  error
	getErr     error
	sponsorErr error

	lastKind   wallet.Kind
	lastPub    string
	lastPriv   string
	ciphertext string
}

func (f *fakeWallets) UpdateCredential(_ context.Context, _ string, kind wallet.Kind, publicKey, privateKey string) error {
	f.lastKind, f.lastPub, f.lastPriv = kind, publicKey, privateKey
	return f.updateErr
}

func (f *fakeWallets) GetPrivateKey(_ context.Context, _ string, _ wallet.Kind) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.ciphertext, nil
}

func (f *fakeWallets) Sponsor(_ context.Context, _ string) error {
	return f.sponsorErr
}

func newTestServer(t *testing.T, users *fakeUsers, wallets *fakeWallets) *httptest.Server {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := NewServer(":0", users, wallets, log)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSignup(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/user/signup", "",
		map[string]string{"email": "user@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "user@example.com", out.Email)
	assert.Equal(t, "tok-signup", out.Token)
}

func TestSignup_Duplicate(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{signupErr: common.ErrAlreadyExists}, &fakeWallets{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/user/signup", "",
		map[string]string{"email": "user@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignup_WeakPassword(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{signupErr: common.ErrWeakPassword}, &fakeWallets{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/user/signup", "",
		map[string]string{"email": "user@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{loginErr: common.ErrAuthenticationFailed}, &fakeWallets{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/user/login", "",
		map[string]string{"email": "user@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth(t *testing.T) {
	users := &fakeUsers{user: &models.User{Email: "user@example.com", ArgentPublicKey: "0xabc"}}
	srv := newTestServer(t, users, &fakeWallets{})

	// No token.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Bad token.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/profile", "tok-bad", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Good token.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/profile", "tok-valid", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		User struct {
			Email           string `json:"email"`
			ArgentPublicKey string `json:"argent_public_key"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "0xabc", out.User.ArgentPublicKey)
}

func TestUpdateProfile(t *testing.T) {
	wallets := &fakeWallets{}
	srv := newTestServer(t, &fakeUsers{}, wallets)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/profile", "tok-valid",
		map[string]string{"publicKey": "0xaddr", "privateKey": "ct", "account": "braavos"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wallet.KindBraavos, wallets.lastKind)
	assert.Equal(t, "0xaddr", wallets.lastPub)
	assert.Equal(t, "ct", wallets.lastPriv)
}

func TestUpdateProfile_Validation(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{})

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/profile", "tok-valid",
		map[string]string{"publicKey": "0xaddr", "privateKey": "ct", "account": "ledger"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/profile", "tok-valid",
		map[string]string{"publicKey": "", "privateKey": "ct", "account": "argent"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProfile_Conflict(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{updateErr: common.ErrAlreadyExists})

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/profile", "tok-valid",
		map[string]string{"publicKey": "0xother", "privateKey": "ct2", "account": "argent"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetPrivateKey(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{ciphertext: "blob"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile/argent/privatekey", "tok-valid", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "blob", out["privateKey"])
}

func TestGetPrivateKey_Missing(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{getErr: common.ErrCredentialNotFound})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile/argent/privatekey", "tok-valid", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetPrivateKey_UnknownKind(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile/ledger/privatekey", "tok-valid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSponsor(t *testing.T) {
	srv := newTestServer(t, &fakeUsers{}, &fakeWallets{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/wallet/sponsor", "tok-valid",
		map[string]string{"userAddress": "0xacc1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wallet/sponsor", "tok-valid",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimiter_Window(t *testing.T) {
	l := NewRateLimiter(3, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), fmt.Sprintf("request %d fits", i+1))
	}
	assert.False(t, l.Allow("1.2.3.4"), "fourth request is rejected")
	assert.True(t, l.Allow("5.6.7.8"), "other clients are unaffected")

	// The window resets.
	l.now = func() time.Time { return base.Add(time.Minute) }
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	users := &fakeUsers{loginErr: common.ErrAuthenticationFailed}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := NewServer(":0", users, &fakeWallets{}, log)
	s.limiter = NewRateLimiter(2, time.Hour)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/user/login", "",
			map[string]string{"email": "user@example.com", "password": "wrong"})
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
