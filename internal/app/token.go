package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/collate/internal/auth"
)

func runToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	plain := fs.String("plain", "", "Plaintext API token to hash")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	secret := strings.TrimSpace(*plain)
	if secret == "" {
		fmt.Fprintln(os.Stderr, "--plain is required")
		return 2
	}

	hash, err := auth.HashToken(secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash token: %v\n", err)
		return 1
	}

	// The bare hash goes to stdout so it can be piped into an env file.
	fmt.Println(hash)
	fmt.Fprintln(os.Stderr, "Set COLLATE_API_TOKEN_HASH to the printed value to enable API auth.")
	return 0
}
