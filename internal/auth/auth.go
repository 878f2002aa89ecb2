package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	serviceName = "libretag"
	account     = "libretranslate-api-key"
	EnvVar      = "LIBRETRANSLATE_API_KEY"
)

// Key sources reported by GetKey.
const (
	SourceKeychain = "Keychain"
	SourceEnv      = "Environment Variable"
)

// GetKey returns the LibreTranslate API key and where it came from. The
// keychain wins; the environment is consulted only when allowEnv is set.
// Both results are empty when no key is configured, which is valid for
// servers that do not require one.
func GetKey(allowEnv bool) (string, string) {
	key, err := keyring.Get(serviceName, account)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), SourceKeychain
	}
	if allowEnv {
		if key, ok := GetEnvKey(); ok {
			return key, SourceEnv
		}
	}
	return "", ""
}

// SaveKey stores key in the OS keychain.
func SaveKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	return keyring.Set(serviceName, account, key)
}

// DeleteKey removes the stored key. Deleting a missing key is not an error.
func DeleteKey() error {
	err := keyring.Delete(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasKey reports whether the keychain holds a key.
func HasKey() bool {
	key, err := keyring.Get(serviceName, account)
	return err == nil && key != ""
}

// PromptForAPIKey reads a key from the terminal without echo.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// GetEnvKey reads the key from LIBRETRANSLATE_API_KEY only.
func GetEnvKey() (string, bool) {
	key := strings.TrimSpace(os.Getenv(EnvVar))
	if key == "" {
		return "", false
	}
	return key, true
}
