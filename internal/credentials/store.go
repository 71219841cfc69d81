// Package credentials defines the pluggable credential-store contract consumed
// by the repository resolver, plus a registry of named implementations resolved
// at startup. The contract mirrors git credential helpers: Fill is queried per
// URL, Approved/Rejected report the outcome of each auth attempt.
package credentials

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

// Credentials is one resolved credential set for a URL.
type Credentials struct {
	Username string
	Password string
	Token    string
	KeyPath  string
}

// Store looks up credentials by repository URL. Implementations must be safe
// for concurrent use; the resolver may query several sources in parallel.
type Store interface {
	// Fill returns credentials for url, or nil when none are known.
	Fill(url string) (*Credentials, error)
	// Approved reports that credentials for url were accepted.
	Approved(url string)
	// Rejected reports that credentials for url were refused, letting the
	// store invalidate cached entries before the resolver's single retry.
	Rejected(url string)
}

// Factory builds a Store from configuration.
type Factory func(cfg config.CredentialsConfig) (Store, error)

var registry = map[string]Factory{
	"none":   func(config.CredentialsConfig) (Store, error) { return NoneStore{}, nil },
	"static": newStaticStore,
	"env":    func(config.CredentialsConfig) (Store, error) { return envStore{}, nil },
}

// Register adds a named store implementation. Later registrations replace
// earlier ones of the same name.
func Register(name string, f Factory) { registry[name] = f }

// Open resolves the configured store by name.
func Open(cfg config.CredentialsConfig) (Store, error) {
	f, ok := registry[cfg.Store]
	if !ok {
		return nil, fnderrors.ConfigError("unknown credential store").
			WithContext("store", cfg.Store).Build()
	}
	return f(cfg)
}

// AuthMethod converts credentials to a go-git transport auth method.
// Token auth uses "token" as the username, matching common forge conventions.
func (c *Credentials) AuthMethod() (transport.AuthMethod, error) {
	if c == nil {
		return nil, nil
	}
	switch {
	case c.Token != "":
		return &githttp.BasicAuth{Username: "token", Password: c.Token}, nil
	case c.KeyPath != "":
		keyPath := c.KeyPath
		if keyPath == "~" || strings.HasPrefix(keyPath, "~/") {
			keyPath = filepath.Join(os.Getenv("HOME"), strings.TrimPrefix(keyPath, "~"))
		}
		keys, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fnderrors.AuthError("failed to load SSH key").
				WithCause(err).WithContext("key_path", keyPath).Build()
		}
		return keys, nil
	case c.Username != "":
		return &githttp.BasicAuth{Username: c.Username, Password: c.Password}, nil
	default:
		return nil, nil
	}
}

// NoneStore never yields credentials.
type NoneStore struct{}

func (NoneStore) Fill(string) (*Credentials, error) { return nil, nil }
func (NoneStore) Approved(string)                   {}
func (NoneStore) Rejected(string)                   {}

// staticStore serves fixed credentials configured per URL prefix.
type staticStore struct {
	entries []config.StaticCredential
}

func newStaticStore(cfg config.CredentialsConfig) (Store, error) {
	return &staticStore{entries: cfg.Static}, nil
}

func (s *staticStore) Fill(url string) (*Credentials, error) {
	for _, e := range s.entries {
		if strings.HasPrefix(url, e.URL) {
			return &Credentials{
				Username: e.Username,
				Password: e.Password,
				Token:    e.Token,
				KeyPath:  e.KeyPath,
			}, nil
		}
	}
	return nil, nil
}

func (s *staticStore) Approved(string) {}
func (s *staticStore) Rejected(string) {}

// envStore reads a single token from GIT_CREDENTIALS for every remote URL.
type envStore struct{}

func (envStore) Fill(string) (*Credentials, error) {
	tok := os.Getenv("GIT_CREDENTIALS")
	if tok == "" {
		return nil, nil
	}
	return &Credentials{Token: tok}, nil
}

func (envStore) Approved(string) {}
func (envStore) Rejected(string) {}
