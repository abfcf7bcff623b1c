package keys

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/gagliardetto/solana-go"

	"github.com/walletkit/walletd/internal/model"
)

// SecretKeyLen is the expanded ed25519 secret key length.
const SecretKeyLen = 64

// secretParser is one candidate encoding. shape is a cheap structural check;
// decode returns the raw bytes or an error. A candidate whose shape matches
// but whose decode fails or yields the wrong length falls through to the
// next candidate instead of aborting the import.
type secretParser struct {
	name   string
	shape  func(string) bool
	decode func(string) ([]byte, error)
}

// parsers are tried strictly in this order. Encodings overlap textually
// (a hex string can look like base58), so the first candidate that both
// matches the shape and decodes to exactly SecretKeyLen bytes wins.
var parsers = []secretParser{
	{
		name:  "base58",
		shape: func(s string) bool { return len(s) >= 86 && len(s) <= 90 },
		decode: func(s string) ([]byte, error) {
			return base58.Decode(s)
		},
	},
	{
		name:  "base64",
		shape: func(s string) bool { return true },
		decode: func(s string) ([]byte, error) {
			return base64.StdEncoding.DecodeString(s)
		},
	},
	{
		name: "json-array",
		shape: func(s string) bool {
			return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
		},
		decode: func(s string) ([]byte, error) {
			var ints []int
			if err := json.Unmarshal([]byte(s), &ints); err != nil {
				return nil, err
			}
			out := make([]byte, len(ints))
			for i, n := range ints {
				if n < 0 || n > 255 {
					return nil, model.ErrUnrecognizedFormat
				}
				out[i] = byte(n)
			}
			return out, nil
		},
	},
	{
		name:  "hex",
		shape: func(s string) bool { return len(s) == 2*SecretKeyLen },
		decode: func(s string) ([]byte, error) {
			return hex.DecodeString(s)
		},
	},
}

// ParseSecretKey detects the textual encoding of raw secret-key material and
// reconstructs the keypair. It commits to the first candidate format whose
// shape matches and whose decode yields exactly 64 bytes; everything else
// falls through, and exhausting the list reports ErrUnrecognizedFormat.
func ParseSecretKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range parsers {
		if !p.shape(raw) {
			continue
		}
		decoded, err := p.decode(raw)
		if err != nil || len(decoded) != SecretKeyLen {
			continue
		}
		return solana.PrivateKey(decoded), nil
	}
	return nil, model.ErrUnrecognizedFormat
}
