// One-off operator tool: open a wallet's sealed secrets with its PIN and
// re-seal them under the current cipher parameters, recomputing the PIN hash.
// Use after a KDF parameter bump; rows are otherwise only re-sealed on PIN
// change.
// Usage: DB_PATH=walletd.db go run ./cmd/rehash <ownerId>
package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/walletkit/walletd/internal/config"
	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/pincrypt"
	"github.com/walletkit/walletd/internal/store"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: rehash <ownerId>")
		os.Exit(1)
	}
	ownerID := os.Args[1]

	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st, err := store.Open(config.GetDBPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	w, err := st.ActiveWallet(ctx, st.DB(), ownerID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if w == nil {
		fmt.Fprintln(os.Stderr, "no active wallet for owner")
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "Enter wallet PIN: ")
	pin, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(pin)

	if !pincrypt.VerifyPIN(pin, w.PINHash) {
		fmt.Fprintln(os.Stderr, "incorrect pin")
		os.Exit(1)
	}

	secretKey, err := pincrypt.Open(w.EncryptedSecretKey, pin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decrypt failed:", err)
		os.Exit(1)
	}
	defer clear(secretKey)

	newSealedKey, err := pincrypt.Seal(secretKey, pin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	newSeed := model.NoSeed
	if w.HasPhrase() {
		seed, err := pincrypt.Open(w.EncryptedSeed, pin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "decrypt failed:", err)
			os.Exit(1)
		}
		newSeed, err = pincrypt.Seal(seed, pin)
		clear(seed)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	newHash, err := pincrypt.HashPIN(pin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := st.UpdateWalletSecrets(ctx, st.DB(), w.ID, newSeed, newSealedKey, newHash); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("re-sealed wallet for", ownerID)
}
