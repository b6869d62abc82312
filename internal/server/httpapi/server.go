// Package httpapi exposes the credential store over HTTP: signup/login,
// profile and credential access behind bearer auth, and the sponsorship
// relay. Responses are JSON; failures map onto status codes without leaking
// which part of a credential check failed.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/server/models"
	"invisiblewallet/internal/wallet"
)

// Auth routes accept this many requests per client address per window.
const (
	authRateLimit  = 10
	authRateWindow = time.Hour
)

// UserAPI is the slice of UserService the handlers need.
type UserAPI interface {
	Signup(ctx context.Context, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	VerifyToken(ctx context.Context, token string) (string, error)
}

// WalletAPI is the slice of WalletService the handlers need.
type WalletAPI interface {
	UpdateCredential(ctx context.Context, userID string, kind wallet.Kind, publicKey, privateKey string) error
	GetPrivateKey(ctx context.Context, userID string, kind wallet.Kind) (string, error)
	Sponsor(ctx context.Context, userAddress string) error
}

// Server is the HTTP front of the credential store.
type Server struct {
	users   UserAPI
	wallets WalletAPI
	limiter *RateLimiter
	log     logging.Logger
	srv     *http.Server
}

// NewServer wires the handlers and returns a Server bound to addr.
func NewServer(addr string, users UserAPI, wallets WalletAPI, log logging.Logger) *Server {
	s := &Server{
		users:   users,
		wallets: wallets,
		limiter: NewRateLimiter(authRateLimit, authRateWindow),
		log:     log,
	}
	s.srv = &http.Server{Addr: addr, Handler: s.Router()}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.Handle("/api/user/signup", s.rateLimited(http.HandlerFunc(s.handleSignup))).Methods("POST")
	r.Handle("/api/user/login", s.rateLimited(http.HandlerFunc(s.handleLogin))).Methods("POST")

	r.Handle("/api/profile", s.requireAuth(s.handleGetProfile)).Methods("GET")
	r.Handle("/api/profile", s.requireAuth(s.handleUpdateProfile)).Methods("PUT")
	r.Handle("/api/profile/{kind}/privatekey", s.requireAuth(s.handleGetPrivateKey)).Methods("GET")
	r.Handle("/api/wallet/sponsor", s.requireAuth(s.handleSponsor)).Methods("POST")

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.Info(ctx, "http server listening", "addr", s.srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
