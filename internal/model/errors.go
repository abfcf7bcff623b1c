package model

import "errors"

// Sentinel errors for every failure a wallet operation can report. Callers
// match with errors.Is; operations wrap these with context via fmt.Errorf.
var (
	// ErrWeakPIN is returned when the PIN fails the strength policy.
	ErrWeakPIN = errors.New("pin does not meet strength requirements")

	// ErrInvalidPhrase is returned when a recovery phrase fails wordlist or
	// checksum validation.
	ErrInvalidPhrase = errors.New("invalid recovery phrase")

	// ErrUnrecognizedFormat is returned when raw secret-key material matches
	// none of the supported encodings.
	ErrUnrecognizedFormat = errors.New("unrecognized secret key format")

	// ErrConflict is returned when the owner already has an active wallet.
	ErrConflict = errors.New("owner already has an active wallet")

	// ErrDuplicateKey is returned when the public key is already owned by a
	// different owner.
	ErrDuplicateKey = errors.New("public key belongs to another owner")

	// ErrAuth is returned on PIN verification failure.
	ErrAuth = errors.New("incorrect pin")

	// ErrNotFound is returned when the owner has no active wallet.
	ErrNotFound = errors.New("no active wallet")

	// ErrDecryptionFailed is returned when opening a sealed secret fails.
	// Deliberately carries the same outward message as ErrAuth so callers
	// cannot tell a wrong PIN from corrupted ciphertext.
	ErrDecryptionFailed = errors.New("incorrect pin")

	// ErrNoPhrase is returned when a phrase read is attempted on a wallet
	// imported from a raw secret key.
	ErrNoPhrase = errors.New("wallet has no recovery phrase")

	// ErrStorage is returned for persistence collaborator failures. Internal
	// detail is logged, never surfaced.
	ErrStorage = errors.New("storage failure")
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
