package keys

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// DefaultPath is the standard Solana account path: purpose 44', coin 501',
// account 0', change 0'. Wallets that predate this convention carry their own
// path in the row.
const DefaultPath = "m/44'/501'/0'/0'"

const hardenedOffset = 0x80000000

// slip10Key is the SLIP-0010 master key domain separator for ed25519.
var slip10Key = []byte("ed25519 seed")

// Derive turns a recovery phrase into a deterministic keypair along the given
// derivation path. The same (phrase, path) pair always yields the same keys.
func Derive(phrase, path string) (solana.PrivateKey, error) {
	seed, err := SeedFromPhrase(phrase)
	if err != nil {
		return nil, err
	}
	defer clear(seed)
	return deriveFromSeed(seed, path)
}

func deriveFromSeed(seed []byte, path string) (solana.PrivateKey, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, slip10Key)
	mac.Write(seed)
	sum := mac.Sum(nil)
	key, chain := sum[:32], sum[32:]

	for _, index := range indices {
		var ser [4]byte
		binary.BigEndian.PutUint32(ser[:], index)

		mac = hmac.New(sha512.New, chain)
		mac.Write([]byte{0x00})
		mac.Write(key)
		mac.Write(ser[:])
		sum = mac.Sum(nil)
		key, chain = sum[:32], sum[32:]
	}

	priv := ed25519.NewKeyFromSeed(key)
	clear(key)
	return solana.PrivateKey(priv), nil
}

// parsePath splits a "m/44'/501'/0'/0'" style path into hardened child
// indices. Ed25519 derivation only supports hardened segments, so every
// segment must carry the apostrophe.
func parsePath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("derivation path must start with m: %q", path)
	}

	indices := make([]uint32, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if !strings.HasSuffix(seg, "'") {
			return nil, fmt.Errorf("non-hardened segment %q in path %q", seg, path)
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(seg, "'"), 10, 32)
		if err != nil || n >= hardenedOffset {
			return nil, fmt.Errorf("invalid segment %q in path %q", seg, path)
		}
		indices = append(indices, uint32(n)+hardenedOffset)
	}
	return indices, nil
}
