package model

import "time"

const (
	// NoSeed marks a wallet imported from a raw secret key: there is no
	// recovery phrase to seal, so the column holds this sentinel instead
	// of a ciphertext envelope.
	NoSeed = "none"

	// ImportedPath marks a wallet whose key did not come from the standard
	// derivation path (raw secret-key import).
	ImportedPath = "imported"
)

// Wallet is one row per (owner, secret material) pairing. Secrets are stored
// only as sealed envelopes; the PIN itself never touches storage.
type Wallet struct {
	ID                 int64
	OwnerID            string
	PublicKey          string
	EncryptedSeed      string // sealed envelope JSON, or NoSeed
	EncryptedSecretKey string // sealed envelope JSON
	PINHash            string
	DerivationPath     string
	DisplayName        string
	IsActive           bool
	CreatedAt          time.Time
}

// HasPhrase reports whether a recovery phrase can be recovered from this row.
func (w *Wallet) HasPhrase() bool {
	return w.EncryptedSeed != NoSeed
}

// WalletBackup is a snapshot of an owner's task progress taken at wallet
// deletion, keyed by public key so it can be replayed once if the same key
// is ever imported again.
type WalletBackup struct {
	ID               int64
	OwnerID          string
	PublicKey        string
	ProgressSnapshot string // serialized task rows
	DeletedAt        time.Time
	Restored         bool
}
