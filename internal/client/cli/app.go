// Package cli is the interactive wallet console: a small REPL over the
// deployment and invocation engines, the credential-store client, and the
// local record.
package cli

import (
	"bufio"
	"context"
	"os"

	"invisiblewallet/internal/client/api"
	"invisiblewallet/internal/client/chain"
	"invisiblewallet/internal/client/config"
	"invisiblewallet/internal/client/deploy"
	"invisiblewallet/internal/client/invoke"
	"invisiblewallet/internal/client/session"
	"invisiblewallet/internal/client/storage"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/paymaster"
)

// App wires the client components together behind the REPL commands.
type App struct {
	config   *config.Config
	store    *storage.SQLiteStore
	api      *api.Client
	pm       *paymaster.Client
	chain    *chain.Reader
	sessions *session.Manager
	deployer *deploy.Engine
	invoker  *invoke.Engine
	log      logging.Logger
	reader   *bufio.Reader
}

// NewApp builds the App from config.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	store, err := storage.Open(c.LocalStorePath)
	if err != nil {
		return nil, err
	}

	apiClient := api.New(c.APIBaseURL)
	pm := paymaster.New(c.PaymasterBaseURL, c.PaymasterAPIKey, log)
	sessions := session.NewManager(store, c.ChainID, log)

	deployer := deploy.NewEngine(deploy.Params{
		Paymaster:        pm,
		Credentials:      apiClient,
		Store:            store,
		Sessions:         sessions,
		Log:              log,
		ChainID:          c.ChainID,
		CounterAddress:   c.CounterAddress,
		ArgentClassHash:  c.ArgentClassHash,
		BraavosClassHash: c.BraavosClassHash,
	})
	invoker := invoke.NewEngine(invoke.Params{
		Paymaster:      pm,
		Credentials:    apiClient,
		Store:          store,
		Sessions:       sessions,
		Log:            log,
		CounterAddress: c.CounterAddress,
	})

	return &App{
		config:   c,
		store:    store,
		api:      apiClient,
		pm:       pm,
		chain:    chain.NewReader(c.RPCURL),
		sessions: sessions,
		deployer: deployer,
		invoker:  invoker,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and blocks until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.store.Close()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// token returns the stored bearer token, "" when logged out.
func (a *App) token(ctx context.Context) string {
	u, err := a.store.GetUser(ctx)
	if err != nil || u == nil {
		return ""
	}
	return u.Token
}

func (a *App) isLoggedIn() bool {
	return a.token(context.Background()) != ""
}

func (a *App) status() string {
	u, err := a.store.GetUser(context.Background())
	if err != nil || u == nil || u.Token == "" {
		return "logged out"
	}
	return u.Email
}
