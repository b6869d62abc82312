package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/dbx"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/paymaster"
	"invisiblewallet/internal/server/config"
	"invisiblewallet/internal/server/repositories/users"
	"invisiblewallet/internal/wallet"
)

// sponsoredFreeTx is how many sponsored transactions one enrollment grants.
const sponsoredFreeTx = 10

// Enroller is the slice of the paymaster client the relay needs.
type Enroller interface {
	EnrollAccount(ctx context.Context, req paymaster.EnrollmentRequest) error
}

// Backuper stores a ciphertext copy out of band. Implementations must treat
// failures as their own concern; the wallet flow only logs them.
type Backuper interface {
	BackupCredential(ctx context.Context, userID string, kind wallet.Kind, ciphertext string) error
}

// WalletService manages per-wallet credentials and the sponsorship
// enrollment relay. Only client-encrypted ciphertext ever passes through it.
type WalletService struct {
	db       *sql.DB
	enroller Enroller
	backuper Backuper
	counter  string
	log      logging.Logger
}

// NewWalletService constructs a WalletService. backuper may be nil when
// ciphertext backups are disabled.
func NewWalletService(db *sql.DB, cfg *config.Config, enroller Enroller, backuper Backuper, log logging.Logger) *WalletService {
	return &WalletService{
		db:       db,
		enroller: enroller,
		backuper: backuper,
		counter:  cfg.CounterAddress,
		log:      log,
	}
}

// UpdateCredential writes one wallet credential. Re-sending an identical
// (address, ciphertext) pair succeeds without effect; attempting to replace
// an existing credential with different material is refused, since the store
// cannot tell a legitimate rotation from an overwrite that would orphan
// deployed funds.
func (s *WalletService) UpdateCredential(ctx context.Context, userID string, kind wallet.Kind, publicKey, privateKey string) error {
	if publicKey == "" || privateKey == "" {
		return fmt.Errorf("%w: public and private key are required", common.ErrInternal)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := users.NewPostgresRepository(tx)
		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		existingPub, existingPriv := user.Credential(kind)
		if existingPub != "" || existingPriv != "" {
			if existingPub == publicKey && existingPriv == privateKey {
				return nil
			}
			return common.ErrAlreadyExists
		}

		user.SetCredential(kind, publicKey, privateKey)
		return repo.UpdateCredentials(ctx, user)
	})
	if err != nil {
		return err
	}

	if s.backuper != nil {
		if err := s.backuper.BackupCredential(ctx, userID, kind, privateKey); err != nil {
			s.log.Warn(ctx, "ciphertext backup failed", "user", userID, "wallet", string(kind), "error", err)
		}
	}
	return nil
}

// GetPrivateKey returns the stored ciphertext for a kind, or
// common.ErrCredentialNotFound when that wallet was never deployed.
func (s *WalletService) GetPrivateKey(ctx context.Context, userID string, kind wallet.Kind) (string, error) {
	repo := users.NewPostgresRepository(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	_, privateKey := user.Credential(kind)
	if privateKey == "" {
		return "", common.ErrCredentialNotFound
	}
	return privateKey, nil
}

// Sponsor relays a sponsorship enrollment for a deployed account address,
// whitelisting the counter contract's mutating entrypoint.
func (s *WalletService) Sponsor(ctx context.Context, userAddress string) error {
	if userAddress == "" {
		return errors.New("userAddress is required")
	}

	return s.enroller.EnrollAccount(ctx, paymaster.EnrollmentRequest{
		Address:  userAddress,
		Campaign: "Invisible Wallet",
		FreeTx:   sponsoredFreeTx,
		Protocol: "INVISIBLE",
		WhitelistedCalls: []paymaster.WhitelistedCall{{
			ContractAddress: s.counter,
			Entrypoint:      "increase_counter",
		}},
	})
}
