package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringPersister stores credentials in the operating system credential
// store (macOS Keychain, Secret Service, Windows Credential Manager).
type KeyringPersister struct {
	service string
	user    string
}

// NewKeyringPersister creates a persister for the given keyring entry.
func NewKeyringPersister(service, user string) (*KeyringPersister, error) {
	service = strings.TrimSpace(service)
	user = strings.TrimSpace(user)
	if service == "" || user == "" {
		return nil, errors.New("keyring service and user are required")
	}
	return &KeyringPersister{service: service, user: user}, nil
}

func (p *KeyringPersister) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	raw, err := keyring.Get(p.service, p.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("keyring get: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode keyring entry: %w", err)
	}
	return creds, nil
}

func (p *KeyringPersister) Save(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode keyring entry: %w", err)
	}
	if err := keyring.Set(p.service, p.user, string(data)); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (p *KeyringPersister) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := keyring.Delete(p.service, p.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
