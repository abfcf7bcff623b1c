package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/progress"
	"github.com/walletkit/walletd/internal/store"
)

// backupCoordinator snapshots an owner's task progress when a wallet is
// deleted and replays it at most once when the same public key is imported
// again.
type backupCoordinator struct {
	store *store.Store
}

// snapshot serializes the owner's current task rows into a backup row keyed
// by public key. It runs outside the destructive delete transaction so the
// snapshot is durable before any row is removed; a backup orphaned by a
// rolled-back delete is harmless because replay is gated on a fresh import
// of the same key.
func (b *backupCoordinator) snapshot(ctx context.Context, ownerID, publicKey string, now time.Time) error {
	tasks, err := progress.List(ctx, b.store.DB(), ownerID)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to serialize progress: %w", err)
	}

	_, err = b.store.InsertBackup(ctx, b.store.DB(), &model.WalletBackup{
		OwnerID:          ownerID,
		PublicKey:        publicKey,
		ProgressSnapshot: string(blob),
		DeletedAt:        now,
	})
	return err
}

// restoreIfAny looks for the most recent unreplayed backup matching publicKey
// and, if found, applies each recorded task entry onto the owner's progress
// rows, then flips the backup's restored flag. The flag update runs in the
// same transaction as the row application, so the replay-once guarantee
// holds even if the caller retries.
func (b *backupCoordinator) restoreIfAny(ctx context.Context, q store.Queryer, ownerID, publicKey string) (bool, error) {
	backup, err := b.store.LatestUnrestoredBackup(ctx, q, publicKey)
	if err != nil {
		return false, err
	}
	if backup == nil {
		return false, nil
	}

	var tasks []progress.Task
	if err := json.Unmarshal([]byte(backup.ProgressSnapshot), &tasks); err != nil {
		return false, fmt.Errorf("failed to decode progress snapshot: %w", err)
	}
	for _, t := range tasks {
		if err := progress.Apply(ctx, q, ownerID, t); err != nil {
			return false, err
		}
	}

	if err := b.store.MarkBackupRestored(ctx, q, backup.ID); err != nil {
		return false, err
	}
	return true, nil
}
