package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/server/models"
	"invisiblewallet/internal/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service failures onto status codes. Anything
// unclassified becomes a bare 500 so internals never leak to clients.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, common.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrAuthenticationFailed),
		errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Email: user.Email, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Email: user.Email, Token: token})
}

type profilePayload struct {
	Email            string `json:"email"`
	ArgentPublicKey  string `json:"argent_public_key,omitempty"`
	BraavosPublicKey string `json:"braavos_public_key,omitempty"`
}

func profileFrom(u *models.User) profilePayload {
	return profilePayload{
		Email:            u.Email,
		ArgentPublicKey:  u.ArgentPublicKey,
		BraavosPublicKey: u.BraavosPublicKey,
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetProfile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]profilePayload{"user": profileFrom(user)})
}

type updateProfileRequest struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	Account    string `json:"account"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := wallet.ParseKind(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown account kind")
		return
	}
	if req.PublicKey == "" || req.PrivateKey == "" {
		writeError(w, http.StatusBadRequest, "publicKey and privateKey are required")
		return
	}

	if err := s.wallets.UpdateCredential(r.Context(), userIDFrom(r.Context()), kind, req.PublicKey, req.PrivateKey); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPrivateKey(w http.ResponseWriter, r *http.Request) {
	kind, err := wallet.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown account kind")
		return
	}

	privateKey, err := s.wallets.GetPrivateKey(r.Context(), userIDFrom(r.Context()), kind)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"privateKey": privateKey})
}

type sponsorRequest struct {
	UserAddress string `json:"userAddress"`
}

func (s *Server) handleSponsor(w http.ResponseWriter, r *http.Request) {
	var req sponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "userAddress is required")
		return
	}

	if err := s.wallets.Sponsor(r.Context(), req.UserAddress); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
