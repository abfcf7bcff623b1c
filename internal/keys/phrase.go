package keys

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/walletkit/walletd/internal/model"
)

// phraseEntropyBits yields a 12-word mnemonic.
const phraseEntropyBits = 128

// GeneratePhrase produces a fresh checksummed 12-word recovery phrase from
// crypto/rand entropy.
func GeneratePhrase() (string, error) {
	entropy, err := bip39.NewEntropy(phraseEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to build mnemonic: %w", err)
	}
	return phrase, nil
}

// NormalizePhrase lowercases and collapses whitespace so user input matches
// the wordlist form before validation.
func NormalizePhrase(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ValidatePhrase checks wordlist membership and the BIP-39 checksum.
func ValidatePhrase(text string) bool {
	return bip39.IsMnemonicValid(NormalizePhrase(text))
}

// SeedFromPhrase validates the phrase and expands it to the 64-byte BIP-39
// seed. Validation always runs before any derivation is attempted.
func SeedFromPhrase(text string) ([]byte, error) {
	phrase := NormalizePhrase(text)
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPhrase, err)
	}
	return seed, nil
}
