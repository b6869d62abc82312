package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/common"
	"invisiblewallet/internal/paymaster"
	"invisiblewallet/internal/wallet"
)

// Signup creates an account at the credential store and stores the token.
func (a *App) Signup(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}

	resp, err := a.api.Signup(ctx, email, password)
	if err != nil {
		printlnFn("Signup failed:", err.Error())
		return err
	}

	if _, err := a.store.MergeUser(ctx, func(u *models.UserRecord) {
		u.Email = resp.Email
		u.Token = resp.Token
	}); err != nil {
		return err
	}
	printlnFn("Success!")
	return nil
}

// Login authenticates and caches the fresh token plus the profile's deployed
// addresses. Any previous session is dropped: it belonged to the old login.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}

	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrAuthenticationFailed) {
			printlnFn("Login failed: wrong email or password")
		} else {
			printlnFn("Login failed:", err.Error())
		}
		return err
	}

	profile, err := a.api.GetProfile(ctx, resp.Token)
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}

	if _, err := a.store.MergeUser(ctx, func(u *models.UserRecord) {
		u.Email = resp.Email
		u.Token = resp.Token
		u.Session = nil
		for _, kind := range wallet.Kinds {
			if addr := profile.AddressFor(kind); addr != "" {
				u.SetAddress(kind, addr)
			}
		}
	}); err != nil {
		return err
	}
	printlnFn("Login successful")
	return nil
}

// Logout wipes the local record, token and session included.
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Logged out")
	return nil
}

// Deploy deploys a wallet of the given kind.
func (a *App) Deploy(ctx context.Context, kindStr string) error {
	kind, err := wallet.ParseKind(kindStr)
	if err != nil {
		printlnFn("Usage: deploy <argent|braavos>")
		return err
	}

	token := a.token(ctx)
	if token == "" {
		printlnFn("Log in first")
		return common.ErrAuthenticationFailed
	}

	password, err := GetPassword(os.Stdout, "Enter wallet password")
	if err != nil {
		return err
	}

	res, err := a.deployer.Deploy(ctx, token, password, kind)
	if err != nil {
		printlnFn("Deployment failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Deployed %s account %s (tx %s)", kind, res.Address, res.TransactionHash))
	return nil
}

// Increase submits a sponsored increase_counter invocation, preferring a
// session-capable wallet when one is deployed.
func (a *App) Increase(ctx context.Context) error {
	token := a.token(ctx)
	if token == "" {
		printlnFn("Log in first")
		return common.ErrAuthenticationFailed
	}

	kind, err := a.pickDeployedKind(ctx)
	if err != nil {
		printlnFn("No deployed wallet; run deploy first")
		return err
	}

	res, err := a.invoker.IncreaseCounter(ctx, token, kind, func() (string, error) {
		return GetPassword(os.Stdout, "Enter wallet password")
	})
	if err != nil {
		if errors.Is(err, common.ErrAuthenticationFailed) {
			printlnFn("Wrong password")
		} else {
			printlnFn("Invocation failed:", err.Error())
		}
		return err
	}

	via := "password"
	if res.UsedSession {
		via = "session"
	}
	printlnFn(fmt.Sprintf("Submitted tx %s (signed via %s)", res.TransactionHash, via))
	return nil
}

// pickDeployedKind prefers the session-capable wallet when both exist.
func (a *App) pickDeployedKind(ctx context.Context) (wallet.Kind, error) {
	u, err := a.store.GetUser(ctx)
	if err != nil {
		return "", err
	}
	if u != nil {
		for _, kind := range wallet.Kinds {
			if u.AddressFor(kind) != "" {
				return kind, nil
			}
		}
	}
	return "", common.ErrCredentialNotFound
}

// Counter reads the on-chain counter value.
func (a *App) Counter(ctx context.Context) error {
	v, err := a.chain.CounterValue(ctx, a.config.CounterAddress)
	if err != nil {
		printlnFn("Read failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Counter: %d", v))
	return nil
}

// Profile shows the stored profile.
func (a *App) Profile(ctx context.Context) error {
	token := a.token(ctx)
	if token == "" {
		printlnFn("Log in first")
		return common.ErrAuthenticationFailed
	}

	p, err := a.api.GetProfile(ctx, token)
	if err != nil {
		printlnFn("Profile fetch failed:", err.Error())
		return err
	}

	printlnFn("Email:  ", p.Email)
	for _, kind := range wallet.Kinds {
		addr := p.AddressFor(kind)
		if addr == "" {
			addr = "(not deployed)"
		}
		printlnFn(fmt.Sprintf("%-8s %s", kind+":", addr))
	}
	return nil
}

// Rewards shows remaining sponsored transactions per deployed wallet.
func (a *App) Rewards(ctx context.Context) error {
	u, err := a.store.GetUser(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		printlnFn("Log in first")
		return common.ErrAuthenticationFailed
	}

	shown := false
	for _, kind := range wallet.Kinds {
		addr := u.AddressFor(kind)
		if addr == "" {
			continue
		}
		rewards, err := a.pm.AccountRewards(ctx, addr)
		if err != nil {
			printlnFn("Rewards fetch failed:", err.Error())
			return err
		}
		printlnFn(fmt.Sprintf("%-8s %d sponsored transactions remaining", kind+":", paymaster.SumRemaining(rewards)))
		shown = true
	}
	if !shown {
		printlnFn("No deployed wallet; run deploy first")
	}
	return nil
}
