package wallet_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/walletkit/walletd/internal/keys"
	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/progress"
	"github.com/walletkit/walletd/internal/store"
	"github.com/walletkit/walletd/internal/wallet"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestService(t *testing.T) (*wallet.Service, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return wallet.New(st, zap.NewNop(), 2), st
}

func TestCreateReturnsPhraseOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)
	require.True(t, keys.ValidatePhrase(created.Phrase))
	require.Len(t, strings.Fields(created.Phrase), 12)
	require.NotEmpty(t, created.Wallet.PublicKey)
	require.Equal(t, keys.DefaultPath, created.Wallet.DerivationPath)

	// The phrase is only ever seen again through the PIN-gated read.
	w, err := svc.Status(ctx, "alice")
	require.NoError(t, err)
	require.True(t, w.HasPhrase())

	phrase, err := svc.Phrase(ctx, "alice", "4812")
	require.NoError(t, err)
	require.Equal(t, created.Phrase, phrase)
}

func TestCreateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", "4812", "second")
	require.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "second")
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestCreateWeakPINNoWrites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "0000", "main")
	require.ErrorIs(t, err, model.ErrWeakPIN)

	_, err = svc.Status(ctx, "alice")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Create(ctx, "alice", "Tg7!qX2z", "main")
	require.NoError(t, err)
}

func TestImportFromPhraseDeterministic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "restored")
	require.NoError(t, err)

	expected, err := keys.Derive(testPhrase, keys.DefaultPath)
	require.NoError(t, err)
	require.Equal(t, expected.PublicKey().String(), created.Wallet.PublicKey)

	priv, err := svc.Keypair(ctx, "alice", "4812")
	require.NoError(t, err)
	require.Equal(t, []byte(expected), []byte(priv))
}

func TestImportInvalidPhrase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFromPhrase(ctx, "alice", "not a real phrase", "4812", "x")
	require.ErrorIs(t, err, model.ErrInvalidPhrase)
}

func TestImportDuplicateKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "alice wallet")
	require.NoError(t, err)

	_, err = svc.ImportFromPhrase(ctx, "bob", testPhrase, "9137", "bob wallet")
	require.ErrorIs(t, err, model.ErrDuplicateKey)

	// The same key through a different encoding is still blocked.
	expected, err := keys.Derive(testPhrase, keys.DefaultPath)
	require.NoError(t, err)
	secret := base64.StdEncoding.EncodeToString(expected)
	_, err = svc.ImportFromSecretKey(ctx, "bob", secret, "9137", "bob wallet")
	require.ErrorIs(t, err, model.ErrDuplicateKey)
}

func TestImportFromSecretKeyNoPhrase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	expected, err := keys.Derive(testPhrase, keys.DefaultPath)
	require.NoError(t, err)

	created, err := svc.ImportFromSecretKey(ctx, "alice",
		base64.StdEncoding.EncodeToString(expected), "4812", "raw import")
	require.NoError(t, err)
	require.Equal(t, model.NoSeed, created.Wallet.EncryptedSeed)
	require.Equal(t, model.ImportedPath, created.Wallet.DerivationPath)

	_, err = svc.Phrase(ctx, "alice", "4812")
	require.ErrorIs(t, err, model.ErrNoPhrase)

	priv, err := svc.Keypair(ctx, "alice", "4812")
	require.NoError(t, err)
	require.Equal(t, []byte(expected), []byte(priv))
}

func TestImportUnrecognizedFormat(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFromSecretKey(ctx, "alice", "definitely not a key", "4812", "x")
	require.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}

func TestWrongPINIsAuthError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)

	_, err = svc.Keypair(ctx, "alice", "9999")
	require.ErrorIs(t, err, model.ErrAuth)

	require.ErrorIs(t, svc.Delete(ctx, "alice", "9999"), model.ErrAuth)

	// Wallet untouched by the failed attempts.
	_, err = svc.Status(ctx, "alice")
	require.NoError(t, err)
}

func TestChangePINAtomic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)

	keyBefore, err := svc.Keypair(ctx, "alice", "4812")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePIN(ctx, "alice", "4812", "Tg7!qX2z"))

	// Old PIN no longer opens anything.
	_, err = svc.Keypair(ctx, "alice", "4812")
	require.ErrorIs(t, err, model.ErrAuth)
	_, err = svc.Phrase(ctx, "alice", "4812")
	require.ErrorIs(t, err, model.ErrAuth)

	// New PIN opens the same plaintexts as before the change.
	keyAfter, err := svc.Keypair(ctx, "alice", "Tg7!qX2z")
	require.NoError(t, err)
	require.Equal(t, []byte(keyBefore), []byte(keyAfter))

	phrase, err := svc.Phrase(ctx, "alice", "Tg7!qX2z")
	require.NoError(t, err)
	require.Equal(t, created.Phrase, phrase)
}

func TestChangePINRejectsWeakNew(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePIN(ctx, "alice", "4812", "1111"), model.ErrWeakPIN)

	// Unchanged: the old PIN still works.
	_, err = svc.Keypair(ctx, "alice", "4812")
	require.NoError(t, err)
}

func TestDeactivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "4812", "main")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "alice", "4812"))

	_, err = svc.Status(ctx, "alice")
	require.ErrorIs(t, err, model.ErrNotFound)

	// A fresh wallet can be created afterwards.
	_, err = svc.Create(ctx, "alice", "4812", "second")
	require.NoError(t, err)
}

func TestDeleteResetsProgressAndBacksUp(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	created, err := svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "main")
	require.NoError(t, err)
	publicKey := created.Wallet.PublicKey

	require.NoError(t, progress.InitializeDefault(ctx, st.DB(), "alice"))
	require.NoError(t, progress.MarkCompleted(ctx, st.DB(), "alice", "fund_wallet"))

	require.NoError(t, svc.Delete(ctx, "alice", "4812"))

	_, err = svc.Status(ctx, "alice")
	require.ErrorIs(t, err, model.ErrNotFound)

	// Progress reset to the default pending set.
	tasks, err := progress.List(ctx, st.DB(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, tasks)
	for _, task := range tasks {
		require.Equal(t, progress.StatusPending, task.Status)
	}

	// Snapshot persisted and not yet replayed.
	b, err := st.LatestUnrestoredBackup(ctx, st.DB(), publicKey)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Contains(t, b.ProgressSnapshot, "fund_wallet")
}

func TestBackupReplayedOnceOnReimport(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	created, err := svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "main")
	require.NoError(t, err)
	publicKey := created.Wallet.PublicKey

	require.NoError(t, progress.InitializeDefault(ctx, st.DB(), "alice"))
	require.NoError(t, progress.MarkCompleted(ctx, st.DB(), "alice", "fund_wallet"))
	require.NoError(t, svc.Delete(ctx, "alice", "4812"))

	// Re-import of the same phrase replays the snapshot.
	_, err = svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "restored")
	require.NoError(t, err)

	tasks, err := progress.List(ctx, st.DB(), "alice")
	require.NoError(t, err)
	var fundStatus string
	for _, task := range tasks {
		if task.Type == "fund_wallet" {
			fundStatus = task.Status
		}
	}
	require.Equal(t, progress.StatusCompleted, fundStatus)

	// The original backup is spent: nothing left to replay for this key.
	b, err := st.LatestUnrestoredBackup(ctx, st.DB(), publicKey)
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestBackupNotReplayedForDifferentKey(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.ImportFromPhrase(ctx, "alice", testPhrase, "4812", "main")
	require.NoError(t, err)
	require.NoError(t, progress.InitializeDefault(ctx, st.DB(), "alice"))
	require.NoError(t, progress.MarkCompleted(ctx, st.DB(), "alice", "fund_wallet"))
	require.NoError(t, svc.Delete(ctx, "alice", "4812"))

	// A freshly generated wallet has a different key, so the snapshot stays.
	_, err = svc.Create(ctx, "alice", "4812", "fresh")
	require.NoError(t, err)

	tasks, err := progress.List(ctx, st.DB(), "alice")
	require.NoError(t, err)
	for _, task := range tasks {
		require.Equal(t, progress.StatusPending, task.Status)
	}
}
