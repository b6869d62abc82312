package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/wallet"
)

func TestSignupAndLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "user@example.com", req.Email)
		require.Equal(t, "secret123", req.Password)

		json.NewEncoder(w).Encode(AuthResponse{Email: req.Email, Token: "tok-" + r.URL.Path})
	}))
	defer srv.Close()

	c := New(srv.URL)

	resp, err := c.Signup(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-/api/user/signup", resp.Token)

	resp, err = c.Login(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-/api/user/login", resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestGetProfile_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get(common.AuthorizationHeaderName))
		json.NewEncoder(w).Encode(profileResponse{User: Profile{
			Email:           "user@example.com",
			ArgentPublicKey: "0xabc",
		}})
	}))
	defer srv.Close()

	p, err := New(srv.URL).GetProfile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", p.AddressFor(wallet.KindArgent))
	assert.Empty(t, p.AddressFor(wallet.KindBraavos))
}

func TestUpdateProfile(t *testing.T) {
	var got UpdateProfileRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/profile", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	err := New(srv.URL).UpdateProfile(context.Background(), "tok-1", UpdateProfileRequest{
		PublicKey:  "0xaddr",
		PrivateKey: "ciphertext",
		Account:    wallet.KindArgent,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xaddr", got.PublicKey)
	assert.Equal(t, wallet.KindArgent, got.Account)
}

func TestGetPrivateKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/profile/braavos/privatekey", r.URL.Path)
		json.NewEncoder(w).Encode(privateKeyResponse{PrivateKey: "blob"})
	}))
	defer srv.Close()

	ct, err := New(srv.URL).GetPrivateKey(context.Background(), "tok-1", wallet.KindBraavos)
	require.NoError(t, err)
	assert.Equal(t, "blob", ct)
}

func TestGetPrivateKey_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetPrivateKey(context.Background(), "tok-1", wallet.KindArgent)
	assert.ErrorIs(t, err, common.ErrCredentialNotFound)
}

func TestDo_SurfacesUpstreamBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Sponsor(context.Background(), "tok-1", "0xaddr")
	require.Error(t, err)
	require.True(t, common.IsProtocolError(err))

	var pe *common.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusBadGateway, pe.StatusCode)
	assert.Contains(t, pe.Body, "upstream down")
}
