package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/walletkit/walletd/internal/model"
)

const walletColumns = `id, owner_id, public_key, encrypted_seed,
encrypted_secret_key, pin_hash, derivation_path, display_name, is_active, created_at`

func scanWallet(row *sql.Row) (*model.Wallet, error) {
	var w model.Wallet
	var active int64
	var created int64
	err := row.Scan(&w.ID, &w.OwnerID, &w.PublicKey, &w.EncryptedSeed,
		&w.EncryptedSecretKey, &w.PINHash, &w.DerivationPath, &w.DisplayName,
		&active, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	w.IsActive = active != 0
	w.CreatedAt = time.Unix(created, 0).UTC()
	return &w, nil
}

// ActiveWallet returns the owner's active wallet, or nil when there is none.
func (s *Store) ActiveWallet(ctx context.Context, q Queryer, ownerID string) (*model.Wallet, error) {
	row := q.QueryRowContext(ctx, `
SELECT `+walletColumns+` FROM wallets WHERE owner_id = ? AND is_active = 1`, ownerID)
	return scanWallet(row)
}

// KeyOwnedByOther reports whether publicKey appears on any wallet row, active
// or historical, owned by someone other than ownerID.
func (s *Store) KeyOwnedByOther(ctx context.Context, q Queryer, publicKey, ownerID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
SELECT COUNT(1) FROM wallets WHERE public_key = ? AND owner_id != ?`, publicKey, ownerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check key ownership: %w", err)
	}
	return n > 0, nil
}

// InsertWallet inserts the row and returns the generated id.
func (s *Store) InsertWallet(ctx context.Context, q Queryer, w *model.Wallet) (int64, error) {
	res, err := q.ExecContext(ctx, `
INSERT INTO wallets (owner_id, public_key, encrypted_seed, encrypted_secret_key,
  pin_hash, derivation_path, display_name, is_active, created_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		w.OwnerID, w.PublicKey, w.EncryptedSeed, w.EncryptedSecretKey,
		w.PINHash, w.DerivationPath, w.DisplayName, boolInt(w.IsActive),
		w.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert wallet: %w", err)
	}
	return res.LastInsertId()
}

// UpdateWalletSecrets rewrites both sealed secrets and the PIN hash in one
// statement, so there is no state where they are under different PINs.
func (s *Store) UpdateWalletSecrets(ctx context.Context, q Queryer, id int64, encSeed, encSecretKey, pinHash string) error {
	res, err := q.ExecContext(ctx, `
UPDATE wallets SET encrypted_seed = ?, encrypted_secret_key = ?, pin_hash = ?
WHERE id = ?`, encSeed, encSecretKey, pinHash, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet secrets: %w", err)
	}
	return oneRow(res)
}

// DeactivateWallet flips is_active off for the row.
func (s *Store) DeactivateWallet(ctx context.Context, q Queryer, id int64) error {
	res, err := q.ExecContext(ctx, `UPDATE wallets SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate wallet: %w", err)
	}
	return oneRow(res)
}

// DeleteWallet removes the row.
func (s *Store) DeleteWallet(ctx context.Context, q Queryer, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("wallet row: %w", model.ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
