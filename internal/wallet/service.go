// Package wallet implements the wallet lifecycle: create, import, PIN change,
// deactivate, delete with progress backup, and PIN-gated secret reads.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/walletkit/walletd/internal/keys"
	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/pincrypt"
	"github.com/walletkit/walletd/internal/progress"
	"github.com/walletkit/walletd/internal/store"
)

// Service orchestrates every mutating wallet operation. Operations for one
// owner are expected to arrive serialized; the storage layer's unique
// indexes guard the cross-request races.
type Service struct {
	store   *store.Store
	log     *zap.Logger
	pool    *kdfPool
	backups *backupCoordinator
	now     func() time.Time
}

// New builds a Service. poolSize bounds concurrent KDF work; pass the
// configured value or 0 for a minimum pool.
func New(st *store.Store, log *zap.Logger, poolSize int) *Service {
	return &Service{
		store:   st,
		log:     log,
		pool:    newKDFPool(poolSize),
		backups: &backupCoordinator{store: st},
		now:     time.Now,
	}
}

// Created is what a successful create or import returns. Phrase is set only
// by Create: it is the one time the plaintext phrase leaves the service
// without a PIN.
type Created struct {
	Wallet *model.Wallet
	Phrase string
}

// Create generates a fresh wallet for the owner: new phrase, keypair derived
// along the default path, both secrets sealed under the PIN.
func (s *Service) Create(ctx context.Context, ownerID, pin, name string) (*Created, error) {
	if st := pincrypt.CheckPINStrength(pin); !st.Strong {
		return nil, fmt.Errorf("%w: %s", model.ErrWeakPIN, st.Reason)
	}
	if err := s.requireNoActive(ctx, ownerID); err != nil {
		return nil, err
	}

	var (
		phrase string
		priv   solana.PrivateKey
		sealed sealedSecrets
	)
	err := s.pool.run(ctx, func() error {
		var err error
		if phrase, err = keys.GeneratePhrase(); err != nil {
			return err
		}
		if priv, err = keys.Derive(phrase, keys.DefaultPath); err != nil {
			return err
		}
		sealed, err = sealAll(phrase, priv, pin)
		return err
	})
	if err != nil {
		return nil, s.internal("create", err)
	}
	defer clear(priv)

	w := &model.Wallet{
		OwnerID:            ownerID,
		PublicKey:          priv.PublicKey().String(),
		EncryptedSeed:      sealed.seed,
		EncryptedSecretKey: sealed.secretKey,
		PINHash:            sealed.pinHash,
		DerivationPath:     keys.DefaultPath,
		DisplayName:        name,
		IsActive:           true,
		CreatedAt:          s.now(),
	}
	id, err := s.store.InsertWallet(ctx, s.store.DB(), w)
	if err != nil {
		return nil, s.internal("create", err)
	}
	w.ID = id

	s.log.Info("wallet created",
		zap.String("owner", ownerID), zap.String("publicKey", w.PublicKey))
	return &Created{Wallet: w, Phrase: phrase}, nil
}

// ImportFromPhrase recreates a wallet from a recovery phrase. If an
// unreplayed backup exists for the derived public key, the owner's progress
// is restored in the same transaction as the insert.
func (s *Service) ImportFromPhrase(ctx context.Context, ownerID, phrase, pin, name string) (*Created, error) {
	if !keys.ValidatePhrase(phrase) {
		return nil, model.ErrInvalidPhrase
	}
	phrase = keys.NormalizePhrase(phrase)

	deriveKey := func() (solana.PrivateKey, error) {
		return keys.Derive(phrase, keys.DefaultPath)
	}
	return s.importKeypair(ctx, ownerID, pin, name, phrase, keys.DefaultPath, deriveKey)
}

// ImportFromSecretKey recreates a wallet from raw secret-key material in any
// supported encoding. No phrase is stored; the seed column holds the NoSeed
// sentinel.
func (s *Service) ImportFromSecretKey(ctx context.Context, ownerID, rawSecret, pin, name string) (*Created, error) {
	parseKey := func() (solana.PrivateKey, error) {
		return keys.ParseSecretKey(rawSecret)
	}
	return s.importKeypair(ctx, ownerID, pin, name, "", model.ImportedPath, parseKey)
}

// importKeypair is the shared import path. phrase is empty for raw-key
// imports.
func (s *Service) importKeypair(ctx context.Context, ownerID, pin, name, phrase, path string, obtain func() (solana.PrivateKey, error)) (*Created, error) {
	if st := pincrypt.CheckPINStrength(pin); !st.Strong {
		return nil, fmt.Errorf("%w: %s", model.ErrWeakPIN, st.Reason)
	}
	if err := s.requireNoActive(ctx, ownerID); err != nil {
		return nil, err
	}

	var (
		priv   solana.PrivateKey
		sealed sealedSecrets
	)
	err := s.pool.run(ctx, func() error {
		var err error
		priv, err = obtain()
		if err != nil {
			return err
		}
		sealed, err = sealAll(phrase, priv, pin)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidPhrase) || errors.Is(err, model.ErrUnrecognizedFormat) {
			return nil, err
		}
		return nil, s.internal("import", err)
	}
	defer clear(priv)

	publicKey := priv.PublicKey().String()
	taken, err := s.store.KeyOwnedByOther(ctx, s.store.DB(), publicKey, ownerID)
	if err != nil {
		return nil, s.internal("import", err)
	}
	if taken {
		return nil, model.ErrDuplicateKey
	}

	w := &model.Wallet{
		OwnerID:            ownerID,
		PublicKey:          publicKey,
		EncryptedSeed:      sealed.seed,
		EncryptedSecretKey: sealed.secretKey,
		PINHash:            sealed.pinHash,
		DerivationPath:     path,
		DisplayName:        name,
		IsActive:           true,
		CreatedAt:          s.now(),
	}

	var restored bool
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.store.InsertWallet(ctx, tx, w)
		if err != nil {
			return err
		}
		w.ID = id
		restored, err = s.backups.restoreIfAny(ctx, tx, ownerID, publicKey)
		return err
	})
	if err != nil {
		return nil, s.internal("import", err)
	}

	s.log.Info("wallet imported",
		zap.String("owner", ownerID), zap.String("publicKey", publicKey),
		zap.Bool("progressRestored", restored))
	return &Created{Wallet: w}, nil
}

// Delete verifies the PIN, durably snapshots the owner's progress keyed by
// the wallet's public key, then atomically removes the wallet row and resets
// the owner's progress to the default task set. A failure after the snapshot
// rolls the removal back; the snapshot row stays behind and is only ever
// replayed against a future import of the same key.
func (s *Service) Delete(ctx context.Context, ownerID, pin string) error {
	w, err := s.authenticate(ctx, ownerID, pin)
	if err != nil {
		return err
	}

	if err := s.backups.snapshot(ctx, ownerID, w.PublicKey, s.now()); err != nil {
		return s.internal("delete", err)
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.DeleteWallet(ctx, tx, w.ID); err != nil {
			return err
		}
		return progress.InitializeDefault(ctx, tx, ownerID)
	})
	if err != nil {
		return s.internal("delete", err)
	}

	s.log.Info("wallet deleted",
		zap.String("owner", ownerID), zap.String("publicKey", w.PublicKey))
	return nil
}

// ChangePIN re-seals both secrets and recomputes the verification hash under
// the new PIN, written as a single statement so no state exists where the
// two secrets are under different PINs.
func (s *Service) ChangePIN(ctx context.Context, ownerID, oldPIN, newPIN string) error {
	w, err := s.authenticate(ctx, ownerID, oldPIN)
	if err != nil {
		return err
	}
	if st := pincrypt.CheckPINStrength(newPIN); !st.Strong {
		return fmt.Errorf("%w: %s", model.ErrWeakPIN, st.Reason)
	}

	var sealed sealedSecrets
	err = s.pool.run(ctx, func() error {
		oldKey := []byte(oldPIN)
		defer clear(oldKey)

		secretKey, err := pincrypt.Open(w.EncryptedSecretKey, oldKey)
		if err != nil {
			return err
		}
		defer clear(secretKey)

		var phrase string
		if w.HasPhrase() {
			seed, err := pincrypt.Open(w.EncryptedSeed, oldKey)
			if err != nil {
				return err
			}
			phrase = string(seed)
			clear(seed)
		}

		sealed, err = sealAll(phrase, solana.PrivateKey(secretKey), newPIN)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrDecryptionFailed) {
			return model.ErrDecryptionFailed
		}
		return s.internal("changePin", err)
	}

	if err := s.store.UpdateWalletSecrets(ctx, s.store.DB(), w.ID, sealed.seed, sealed.secretKey, sealed.pinHash); err != nil {
		return s.internal("changePin", err)
	}

	s.log.Info("wallet pin changed", zap.String("owner", ownerID))
	return nil
}

// Deactivate verifies the PIN and flips the wallet inactive. Nothing is
// deleted or backed up.
func (s *Service) Deactivate(ctx context.Context, ownerID, pin string) error {
	w, err := s.authenticate(ctx, ownerID, pin)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateWallet(ctx, s.store.DB(), w.ID); err != nil {
		return s.internal("deactivate", err)
	}
	s.log.Info("wallet deactivated", zap.String("owner", ownerID))
	return nil
}

// Keypair is the PIN-gated secret key read.
func (s *Service) Keypair(ctx context.Context, ownerID, pin string) (solana.PrivateKey, error) {
	w, err := s.authenticate(ctx, ownerID, pin)
	if err != nil {
		return nil, err
	}

	var priv solana.PrivateKey
	err = s.pool.run(ctx, func() error {
		raw, err := pincrypt.Open(w.EncryptedSecretKey, []byte(pin))
		if err != nil {
			return err
		}
		priv = solana.PrivateKey(raw)
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrDecryptionFailed) {
			return nil, model.ErrDecryptionFailed
		}
		return nil, s.internal("keypair", err)
	}
	return priv, nil
}

// Phrase is the PIN-gated recovery phrase read. Wallets imported from a raw
// secret key have no phrase to return.
func (s *Service) Phrase(ctx context.Context, ownerID, pin string) (string, error) {
	w, err := s.authenticate(ctx, ownerID, pin)
	if err != nil {
		return "", err
	}
	if !w.HasPhrase() {
		return "", model.ErrNoPhrase
	}

	var phrase string
	err = s.pool.run(ctx, func() error {
		raw, err := pincrypt.Open(w.EncryptedSeed, []byte(pin))
		if err != nil {
			return err
		}
		phrase = string(raw)
		clear(raw)
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrDecryptionFailed) {
			return "", model.ErrDecryptionFailed
		}
		return "", s.internal("phrase", err)
	}
	return phrase, nil
}

// Status returns the owner's active wallet metadata, never secret material.
func (s *Service) Status(ctx context.Context, ownerID string) (*model.Wallet, error) {
	w, err := s.store.ActiveWallet(ctx, s.store.DB(), ownerID)
	if err != nil {
		return nil, s.internal("status", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// requireNoActive is the fast-path single-active check; the partial unique
// index on (owner_id) WHERE is_active=1 closes the remaining race.
func (s *Service) requireNoActive(ctx context.Context, ownerID string) error {
	w, err := s.store.ActiveWallet(ctx, s.store.DB(), ownerID)
	if err != nil {
		return s.internal("activeCheck", err)
	}
	if w != nil {
		return model.ErrConflict
	}
	return nil
}

// authenticate loads the active wallet and verifies the PIN against the
// stored argon2id hash inside the KDF pool.
func (s *Service) authenticate(ctx context.Context, ownerID, pin string) (*model.Wallet, error) {
	w, err := s.store.ActiveWallet(ctx, s.store.DB(), ownerID)
	if err != nil {
		return nil, s.internal("auth", err)
	}
	if w == nil {
		return nil, model.ErrNotFound
	}

	var ok bool
	err = s.pool.run(ctx, func() error {
		pinBytes := []byte(pin)
		defer clear(pinBytes)
		ok = pincrypt.VerifyPIN(pinBytes, w.PINHash)
		return nil
	})
	if err != nil {
		return nil, s.internal("auth", err)
	}
	if !ok {
		return nil, model.ErrAuth
	}
	return w, nil
}

// internal logs collaborator failures and reports them as a bare storage
// error: callers never see driver or crypto detail.
func (s *Service) internal(op string, err error) error {
	s.log.Error("wallet operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, model.ErrStorage)
}

// sealedSecrets is the trio written together on create, import, and PIN
// change.
type sealedSecrets struct {
	seed      string
	secretKey string
	pinHash   string
}

// sealAll seals the phrase (when present) and secret key under the PIN and
// computes the verification hash. phrase == "" stores the NoSeed sentinel.
func sealAll(phrase string, priv solana.PrivateKey, pin string) (sealedSecrets, error) {
	pinBytes := []byte(pin)
	defer clear(pinBytes)

	var out sealedSecrets

	if phrase == "" {
		out.seed = model.NoSeed
	} else {
		sealed, err := pincrypt.Seal([]byte(phrase), pinBytes)
		if err != nil {
			return out, fmt.Errorf("failed to seal phrase: %w", err)
		}
		out.seed = sealed
	}

	sealedKey, err := pincrypt.Seal(priv, pinBytes)
	if err != nil {
		return out, fmt.Errorf("failed to seal secret key: %w", err)
	}
	out.secretKey = sealedKey

	hash, err := pincrypt.HashPIN(pinBytes)
	if err != nil {
		return out, fmt.Errorf("failed to hash pin: %w", err)
	}
	out.pinHash = hash
	return out, nil
}
