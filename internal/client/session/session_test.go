package session

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/client/storage"
	"invisiblewallet/internal/common"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/starkx"
	"invisiblewallet/internal/wallet"
)

const testChainID = "0x534e5f5345504f4c4941"

func newTestManager(t *testing.T) (*Manager, storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewManager(store, testChainID, log), store
}

func TestIsExpired_BoundaryInclusive(t *testing.T) {
	now := time.Now()
	s := &models.Session{Expiry: now.UnixMilli()}

	assert.True(t, IsExpired(s, now), "a session exactly at its expiry is expired")
	assert.True(t, IsExpired(s, now.Add(time.Millisecond)))
	assert.False(t, IsExpired(s, now.Add(-time.Millisecond)))
}

func TestCreate_PersistsSessionWithScope(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	master, err := starkx.GenerateKeypair()
	require.NoError(t, err)

	now := time.Now()
	sess, err := m.Create(ctx, master, wallet.KindArgent, "0xacc1", "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(TTL).UnixMilli(), sess.Expiry)
	assert.Equal(t, wallet.KindArgent, sess.Wallet)
	require.Len(t, sess.AllowedMethods, 1)
	assert.Equal(t, "0xc0ffee", sess.AllowedMethods[0].ContractAddress)
	assert.Equal(t, starkx.SelectorHex("increase_counter"), sess.AllowedMethods[0].Selector)

	// The grant verifies against the master public key.
	h, err := GrantHash(testChainID, "0xacc1", sess.SessionPublic, sess.Expiry, sess.AllowedMethods)
	require.NoError(t, err)
	ok, err := master.Verify(h, sess.GrantR, sess.GrantS)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := store.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u.Session)
	assert.Equal(t, sess.SessionPublic, u.Session.SessionPublic)
}

func TestCreate_RejectsSessionIncapableKind(t *testing.T) {
	m, _ := newTestManager(t)
	master, err := starkx.GenerateKeypair()
	require.NoError(t, err)

	_, err = m.Create(context.Background(), master, wallet.KindBraavos, "0xacc1", "0xc0ffee", "increase_counter", time.Now())
	assert.ErrorIs(t, err, common.ErrSessionInvalid)
}

func TestGetSession_ScopeEnforcement(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	master, err := starkx.GenerateKeypair()
	require.NoError(t, err)

	now := time.Now()
	_, err = m.Create(ctx, master, wallet.KindArgent, "0xacc1", "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)

	signer, err := m.GetSession(ctx, wallet.KindArgent, "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)
	require.NotNil(t, signer)

	// A different method on the same contract is outside the scope.
	signer, err = m.GetSession(ctx, wallet.KindArgent, "0xc0ffee", "decrease_counter", now)
	require.NoError(t, err)
	assert.Nil(t, signer)

	// The same method on a different contract is outside the scope.
	signer, err = m.GetSession(ctx, wallet.KindArgent, "0xdead", "increase_counter", now)
	require.NoError(t, err)
	assert.Nil(t, signer)

	// A different wallet kind never matches.
	signer, err = m.GetSession(ctx, wallet.KindBraavos, "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)
	assert.Nil(t, signer)
}

func TestGetSession_ClearsExpired(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	master, err := starkx.GenerateKeypair()
	require.NoError(t, err)

	now := time.Now()
	_, err = m.Create(ctx, master, wallet.KindArgent, "0xacc1", "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)

	signer, err := m.GetSession(ctx, wallet.KindArgent, "0xc0ffee", "increase_counter", now.Add(TTL))
	require.NoError(t, err)
	assert.Nil(t, signer)

	u, err := store.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u.Session, "expired session is removed from the store")
}

func TestClear_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	require.NoError(t, m.Clear(ctx))
	require.NoError(t, m.Clear(ctx))
}

func TestSigner_Sign_Layout(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	master, err := starkx.GenerateKeypair()
	require.NoError(t, err)

	now := time.Now()
	sess, err := m.Create(ctx, master, wallet.KindArgent, "0xacc1", "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)

	signer, err := m.GetSession(ctx, wallet.KindArgent, "0xc0ffee", "increase_counter", now)
	require.NoError(t, err)
	require.NotNil(t, signer)

	h, err := starkx.HexToElement("0x123abc")
	require.NoError(t, err)
	sig, err := signer.Sign(h)
	require.NoError(t, err)

	require.Len(t, sig, 7)
	assert.Equal(t, sess.SessionPublic, sig[2])
	assert.Equal(t, sess.GrantR, sig[5])
	assert.Equal(t, sess.GrantS, sig[6])

	// The leading pair verifies against the session public key.
	kp, err := starkx.KeypairFromHex(sess.SessionKey)
	require.NoError(t, err)
	ok, err := kp.Verify(h, sig[0], sig[1])
	require.NoError(t, err)
	assert.True(t, ok)

	root, err := PolicyRoot(sess.AllowedMethods)
	require.NoError(t, err)
	assert.Equal(t, starkx.ElementToHex(root), sig[4])
}

func TestGrantHash_BindsInputs(t *testing.T) {
	methods := []models.AllowedMethod{{ContractAddress: "0xc0ffee", Selector: starkx.SelectorHex("increase_counter")}}

	h1, err := GrantHash(testChainID, "0xacc1", "0xpub1", 1000, methods)
	require.Error(t, err) // "0xpub1" is not valid hex

	h1, err = GrantHash(testChainID, "0xacc1", "0xab1", 1000, methods)
	require.NoError(t, err)

	h2, err := GrantHash(testChainID, "0xacc1", "0xab1", 1000, methods)
	require.NoError(t, err)
	assert.Equal(t, starkx.ElementToHex(h1), starkx.ElementToHex(h2), "deterministic")

	h3, err := GrantHash(testChainID, "0xacc2", "0xab1", 1000, methods)
	require.NoError(t, err)
	assert.NotEqual(t, starkx.ElementToHex(h1), starkx.ElementToHex(h3), "bound to account")

	h4, err := GrantHash(testChainID, "0xacc1", "0xab1", 2000, methods)
	require.NoError(t, err)
	assert.NotEqual(t, starkx.ElementToHex(h1), starkx.ElementToHex(h4), "bound to expiry")
}
