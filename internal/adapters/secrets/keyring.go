// Package secrets keeps the PostgreSQL password in the OS keyring.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// postgresUser is the keyring account that holds the database password.
const postgresUser = "postgres-password"

var (
	ErrNotFound    = errors.New("password not found in keyring")
	ErrUnavailable = errors.New("OS keyring is not available")
)

// Keyring reads and writes credentials under one service name.
type Keyring struct {
	service string
}

// NewKeyring constructs a keyring scoped to service, usually the app name.
func NewKeyring(service string) Keyring {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "gantt"
	}
	return Keyring{service: service}
}

// Service returns the keyring service name.
func (k Keyring) Service() string {
	return k.service
}

// PostgresPassword returns the stored password or ErrNotFound.
func (k Keyring) PostgresPassword() (string, error) {
	password, err := keyring.Get(k.service, postgresUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return password, nil
}

// SetPostgresPassword stores password.
func (k Keyring) SetPostgresPassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(k.service, postgresUser, password); err != nil {
		return fmt.Errorf("store password in keyring: %w", err)
	}
	return nil
}

// ClearPostgresPassword removes the stored password.
func (k Keyring) ClearPostgresPassword() error {
	if err := keyring.Delete(k.service, postgresUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete password from keyring: %w", err)
	}
	return nil
}

// OptionalPostgresPassword treats a missing entry as an empty password.
func (k Keyring) OptionalPostgresPassword() (string, error) {
	password, err := k.PostgresPassword()
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return password, err
}
