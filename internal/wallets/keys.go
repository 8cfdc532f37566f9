/*

This file contains the key-provider abstraction. Wallet records never carry key
material; the scheduler asks the provider for a signing key at dispatch time,
so the backing store can move from environment variables to a secrets manager
without touching any scheduling logic.

*/

package wallets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrKeyNotFound = errors.New("signing key not found")

// KeyProvider resolves an actor address to its signing key.
type KeyProvider interface {
	SigningKey(address string) (string, error)
}

// EnvKeyProvider reads keys from environment variables named
// <prefix><ADDRESS>, with the address uppercased. This is the development
// backing; production swaps in a secrets-manager implementation.
type EnvKeyProvider struct {
	prefix string
}

func NewEnvKeyProvider(prefix string) *EnvKeyProvider {
	return &EnvKeyProvider{prefix: prefix}
}

func (e *EnvKeyProvider) SigningKey(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("%w: empty address", ErrKeyNotFound)
	}

	key := os.Getenv(e.prefix + strings.ToUpper(address))
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, address)
	}
	return key, nil
}

// StaticKeyProvider serves keys from an in-memory map. Used by tests and by
// simulation runs that never touch real keys.
type StaticKeyProvider struct {
	keys map[string]string
}

func NewStaticKeyProvider(keys map[string]string) *StaticKeyProvider {
	return &StaticKeyProvider{keys: keys}
}

func (s *StaticKeyProvider) SigningKey(address string) (string, error) {
	key, ok := s.keys[address]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, address)
	}
	return key, nil
}
