package secrets

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestKeyring_SetGetClear(t *testing.T) {
	gokeyring.MockInit()
	k := NewKeyring("gantt-test")

	if err := k.SetPostgresPassword("s3cret"); err != nil {
		t.Fatalf("SetPostgresPassword() error = %v", err)
	}
	got, err := k.PostgresPassword()
	if err != nil {
		t.Fatalf("PostgresPassword() error = %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("PostgresPassword() = %q, want s3cret", got)
	}

	if err := k.ClearPostgresPassword(); err != nil {
		t.Fatalf("ClearPostgresPassword() error = %v", err)
	}
	if _, err := k.PostgresPassword(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	if err := k.ClearPostgresPassword(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound clearing twice, got %v", err)
	}
}

func TestKeyring_OptionalPassword(t *testing.T) {
	gokeyring.MockInit()
	k := NewKeyring("")
	if k.Service() != "gantt" {
		t.Fatalf("expected default service gantt, got %q", k.Service())
	}
	got, err := k.OptionalPostgresPassword()
	if err != nil || got != "" {
		t.Fatalf("expected empty optional password, got %q (%v)", got, err)
	}
}

func TestKeyring_RejectsEmptyPassword(t *testing.T) {
	gokeyring.MockInit()
	if err := NewKeyring("gantt-test").SetPostgresPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestKeyring_Unavailable(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no dbus"))
	t.Cleanup(gokeyring.MockInit)
	_, err := NewKeyring("gantt-test").PostgresPassword()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
