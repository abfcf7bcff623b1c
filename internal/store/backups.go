package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/walletkit/walletd/internal/model"
)

// InsertBackup persists a progress snapshot taken at deletion time.
func (s *Store) InsertBackup(ctx context.Context, q Queryer, b *model.WalletBackup) (int64, error) {
	res, err := q.ExecContext(ctx, `
INSERT INTO wallet_backups (owner_id, public_key, progress_snapshot, deleted_at, restored)
VALUES (?,?,?,?,0)`,
		b.OwnerID, b.PublicKey, b.ProgressSnapshot, b.DeletedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert backup: %w", err)
	}
	return res.LastInsertId()
}

// LatestUnrestoredBackup returns the most recent unreplayed backup for the
// public key, or nil when there is none.
func (s *Store) LatestUnrestoredBackup(ctx context.Context, q Queryer, publicKey string) (*model.WalletBackup, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, owner_id, public_key, progress_snapshot, deleted_at, restored
FROM wallet_backups
WHERE public_key = ? AND restored = 0
ORDER BY deleted_at DESC, id DESC LIMIT 1`, publicKey)

	var b model.WalletBackup
	var deleted, restored int64
	err := row.Scan(&b.ID, &b.OwnerID, &b.PublicKey, &b.ProgressSnapshot, &deleted, &restored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan backup: %w", err)
	}
	b.DeletedAt = time.Unix(deleted, 0).UTC()
	b.Restored = restored != 0
	return &b, nil
}

// MarkBackupRestored flips the restored flag. The WHERE clause keeps the flip
// one-way: a backup already marked restored is never matched again.
func (s *Store) MarkBackupRestored(ctx context.Context, q Queryer, id int64) error {
	res, err := q.ExecContext(ctx, `
UPDATE wallet_backups SET restored = 1 WHERE id = ? AND restored = 0`, id)
	if err != nil {
		return fmt.Errorf("failed to mark backup restored: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("backup %d already restored or missing", id)
	}
	return nil
}
