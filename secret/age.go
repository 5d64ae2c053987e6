package secret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"filippo.io/age"
)

// AgeConfig configures an AgeProvider.
type AgeConfig struct {
	// VaultFile is an age-encrypted JSON object mapping names to secrets.
	VaultFile string
	// Identity is an AGE-SECRET-KEY-1... string. Takes precedence over IdentityFile.
	Identity string
	// IdentityFile holds one or more identities in age keygen format.
	IdentityFile string
}

// AgeProvider resolves refs as names in an age-encrypted vault.
// The vault is decrypted on first use and kept in memory.
type AgeProvider struct {
	cfg AgeConfig

	once    sync.Once
	secrets map[string]string
	err     error
}

// NewAgeProvider creates an AgeProvider. Identities are parsed eagerly so
// misconfiguration surfaces at startup.
func NewAgeProvider(cfg AgeConfig) (*AgeProvider, error) {
	if cfg.VaultFile == "" {
		return nil, fmt.Errorf("%w: age vault file is required", ErrInvalidProvider)
	}
	if _, err := cfg.identities(); err != nil {
		return nil, err
	}
	return &AgeProvider{cfg: cfg}, nil
}

// Name implements Provider.
func (*AgeProvider) Name() string { return "age" }

// Resolve returns the vault entry named ref.
func (p *AgeProvider) Resolve(_ context.Context, ref string) (string, error) {
	p.once.Do(func() {
		p.secrets, p.err = p.load()
	})
	if p.err != nil {
		return "", p.err
	}
	v, ok := p.secrets[ref]
	if !ok {
		return "", fmt.Errorf("%w: age %s", ErrSecretNotFound, ref)
	}
	return v, nil
}

// Close implements Provider.
func (p *AgeProvider) Close() error {
	for k := range p.secrets {
		delete(p.secrets, k)
	}
	return nil
}

func (p *AgeProvider) load() (map[string]string, error) {
	ids, err := p.cfg.identities()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p.cfg.VaultFile)
	if err != nil {
		return nil, fmt.Errorf("secret: open age vault: %w", err)
	}
	defer f.Close()

	plaintext, err := Decrypt(f, ids...)
	if err != nil {
		return nil, err
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("secret: unmarshal age vault: %w", err)
	}
	return secrets, nil
}

func (c AgeConfig) identities() ([]age.Identity, error) {
	switch {
	case c.Identity != "":
		id, err := age.ParseX25519Identity(strings.TrimSpace(c.Identity))
		if err != nil {
			return nil, fmt.Errorf("secret: parse age identity: %w", err)
		}
		return []age.Identity{id}, nil
	case c.IdentityFile != "":
		data, err := os.ReadFile(c.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("secret: read age identity file: %w", err)
		}
		ids, err := age.ParseIdentities(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("secret: parse age identity file: %w", err)
		}
		return ids, nil
	default:
		return nil, ErrMissingIdentity
	}
}

// Encrypt seals plaintext for recipients.
func Encrypt(plaintext []byte, recipients ...age.Recipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, fmt.Errorf("secret: age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("secret: age encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("secret: age encrypt: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt opens an age ciphertext with any of identities.
func Decrypt(src io.Reader, identities ...age.Identity) ([]byte, error) {
	r, err := age.Decrypt(src, identities...)
	if err != nil {
		return nil, fmt.Errorf("secret: age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("secret: age decrypt: %w", err)
	}
	return plaintext, nil
}

var _ Provider = (*AgeProvider)(nil)
