package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/wallet"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetUser_EmptyStore(t *testing.T) {
	s := setupStore(t)
	u, err := s.GetUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMergeUser_CreatesAndMerges(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.MergeUser(ctx, func(u *models.UserRecord) {
		u.Email = "a@example.com"
		u.Token = "tok"
	})
	require.NoError(t, err)

	// A later merge must not clobber unrelated fields.
	_, err = s.MergeUser(ctx, func(u *models.UserRecord) {
		u.SetAddress(wallet.KindArgent, "0xabc")
	})
	require.NoError(t, err)

	u, err := s.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "tok", u.Token)
	assert.Equal(t, "0xabc", u.AddressFor(wallet.KindArgent))
	assert.Empty(t, u.AddressFor(wallet.KindBraavos))
}

func TestMergeUser_SessionAndAddressDoNotClobberEachOther(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.MergeUser(ctx, func(u *models.UserRecord) {
		u.SetAddress(wallet.KindArgent, "0xaddr")
	})
	require.NoError(t, err)

	_, err = s.MergeUser(ctx, func(u *models.UserRecord) {
		u.Session = &models.Session{Expiry: 42, Wallet: wallet.KindArgent}
	})
	require.NoError(t, err)

	u, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xaddr", u.ArgentAddress)
	require.NotNil(t, u.Session)
	assert.EqualValues(t, 42, u.Session.Expiry)
}

func TestClearSession_Idempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// No record at all: no-op.
	require.NoError(t, s.ClearSession(ctx))

	_, err := s.MergeUser(ctx, func(u *models.UserRecord) {
		u.Email = "a@example.com"
		u.Session = &models.Session{Expiry: 1}
	})
	require.NoError(t, err)

	require.NoError(t, s.ClearSession(ctx))
	require.NoError(t, s.ClearSession(ctx))

	u, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u.Session)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.MergeUser(ctx, func(u *models.UserRecord) { u.Email = "a@example.com" })
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	u, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSessionKeyRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	sess := &models.Session{
		Expiry:        9999999999999,
		Wallet:        wallet.KindArgent,
		SessionKey:    "0x4a1b2c3d4e5f60718293a4b5c6d7e8f9a0b1c2d3e4f5061728394a5b6c7d8e",
		SessionPublic: "0x7e6d5c4b3a291807f6e5d4c3b2a190817263544536271809fedcba987654321",
		GrantR:        "0x1",
		GrantS:        "0x2",
		AllowedMethods: []models.AllowedMethod{
			{ContractAddress: "0xc0ffee", Selector: "0x5e1"},
		},
	}

	_, err := s.MergeUser(ctx, func(u *models.UserRecord) { u.Session = sess })
	require.NoError(t, err)

	u, err := s.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u.Session)
	assert.Equal(t, sess, u.Session)
}
