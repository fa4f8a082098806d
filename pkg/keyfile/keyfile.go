// Package keyfile loads Solana keypairs from newline-separated base58 secret keys
package keyfile

import (
	"bufio"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Sentinel errors for key file operations
var (
	ErrReadFile     = errors.New("cannot read key file")
	ErrDecodeSecret = errors.New("cannot decode secret key")
	ErrNoKeys       = errors.New("key file contains no keys")
)

// Load reads every keypair from the file at path
func Load(path string) ([]solana.PrivateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads one base58 secret key per line. Blank lines are skipped.
func Parse(r io.Reader) ([]solana.PrivateKey, error) {
	var keys []solana.PrivateKey

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		key, err := DecodeSecret(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}

	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	return keys, nil
}

// DecodeSecret decodes a single base58 encoded 64-byte ed25519 secret key
func DecodeSecret(secret string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSecret, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrDecodeSecret, ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
