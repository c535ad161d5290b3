// Package authstore persists the local CLI session: the DevHub credentials
// and the auth URLs of orgs claimed from the pool, in a JSON file under the
// user config dir.
package authstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const fileName = "auth.json"

// File is the persisted session.
type File struct {
	DevHub DevHubAuth         `json:"devhub"`
	Orgs   map[string]OrgAuth `json:"orgs"`
}

// DevHubAuth identifies the hub the CLI talks to.
type DevHubAuth struct {
	InstanceURL string `json:"instance_url"`
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

// OrgAuth is a claimed org's stored session, keyed by alias.
type OrgAuth struct {
	Username string    `json:"username"`
	AuthURL  string    `json:"auth_url"`
	SavedAt  time.Time `json:"saved_at"`
}

// Store reads and writes the session file.
type Store struct {
	path string
}

// New locates the session file under the user config dir.
func New() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating config dir: %w", err)
	}
	return NewAt(filepath.Join(dir, "orgpool", fileName)), nil
}

// NewAt returns a store over an explicit path. Used by tests.
func NewAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the session. A missing file is an empty session, not an error.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Orgs: make(map[string]OrgAuth)}, nil
		}
		return nil, fmt.Errorf("reading auth store: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing auth store: %w", err)
	}
	if f.Orgs == nil {
		f.Orgs = make(map[string]OrgAuth)
	}
	return &f, nil
}

// Save writes the session. The file carries credentials, so it is not
// group or world readable.
func (s *Store) Save(f *File) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating auth store dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling auth store: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// SaveOrgAuth records a claimed org's session under the given alias.
func (s *Store) SaveOrgAuth(alias string, a OrgAuth) error {
	f, err := s.Load()
	if err != nil {
		return err
	}
	if a.SavedAt.IsZero() {
		a.SavedAt = time.Now().UTC()
	}
	f.Orgs[alias] = a
	return s.Save(f)
}

// Two accepted token shapes: the full client-id/secret/refresh form and the
// short refresh-only form.
var (
	authURLFull  = regexp.MustCompile(`^force://[A-Za-z0-9._=-]+:[A-Za-z0-9._=-]*:[A-Za-z0-9._=-]+@[^@\s]+$`)
	authURLShort = regexp.MustCompile(`^force://[A-Za-z0-9._=-]+@[^@\s]+$`)
)

// ValidAuthURL reports whether a stored token can drive auto-auth. Malformed
// tokens are treated as absent by callers, never as errors.
func ValidAuthURL(u string) bool {
	return authURLFull.MatchString(u) || authURLShort.MatchString(u)
}
