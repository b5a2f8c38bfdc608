// Package secrets resolves provider credentials. Adapters only see the
// Store capability; where a secret actually lives (env, keychain) is a
// wiring concern.
package secrets

import (
	"os"
	"os/exec"
	"strings"
)

// Store retrieves one named secret.
type Store interface {
	Get(name string) (string, bool)
}

// EnvStore reads secrets from environment variables.
type EnvStore struct{}

func (EnvStore) Get(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// KeychainStore shells out to the macOS `security` tool. On other
// platforms or for unknown items it simply reports not found.
type KeychainStore struct {
	Account string
}

func (k KeychainStore) Get(name string) (string, bool) {
	account := k.Account
	if account == "" {
		account = "ara"
	}
	out, err := exec.Command("security", "find-generic-password",
		"-a", account, "-s", name, "-w").Output()
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "", false
	}
	return v, true
}

// Chain consults stores in order and returns the first hit.
type Chain []Store

func (c Chain) Get(name string) (string, bool) {
	for _, s := range c {
		if v, ok := s.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// Default resolves env first, then the local keychain.
func Default() Store {
	return Chain{EnvStore{}, KeychainStore{}}
}

// StaticStore is a fixed map, used in tests and smoke runs.
type StaticStore map[string]string

func (s StaticStore) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok && v != ""
}
