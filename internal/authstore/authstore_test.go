package authstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s := NewAt(filepath.Join(t.TempDir(), "auth.json"))

	f, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, f.DevHub.InstanceURL)
	assert.Empty(t, f.Orgs)
}

func TestSaveAndLoad(t *testing.T) {
	s := NewAt(filepath.Join(t.TempDir(), "nested", "auth.json"))

	f := &File{
		DevHub: DevHubAuth{
			InstanceURL: "https://hub.example.com",
			AccessToken: "00Dtoken",
			Username:    "admin@example.com",
			Email:       "admin@example.com",
		},
		Orgs: map[string]OrgAuth{},
	}
	require.NoError(t, s.Save(f))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com", loaded.DevHub.InstanceURL)
	assert.Equal(t, "admin@example.com", loaded.DevHub.Username)
}

func TestSaveOrgAuth(t *testing.T) {
	s := NewAt(filepath.Join(t.TempDir(), "auth.json"))

	err := s.SaveOrgAuth("ci-org", OrgAuth{
		Username: "test-1@example.com",
		AuthURL:  "force://token123@test.example.com",
	})
	require.NoError(t, err)

	f, err := s.Load()
	require.NoError(t, err)
	require.Contains(t, f.Orgs, "ci-org")
	assert.Equal(t, "test-1@example.com", f.Orgs["ci-org"].Username)
	assert.False(t, f.Orgs["ci-org"].SavedAt.IsZero())
}

func TestValidAuthURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"force://clientid:secret:refreshtoken@test.example.com", true},
		{"force://clientid::refreshtoken@test.example.com", true}, // secret may be empty
		{"force://refreshtoken@test.example.com", true},
		{"", false},
		{"force://", false},
		{"https://refreshtoken@test.example.com", false},
		{"force://bad token@test.example.com", false},
		{"force://a:b:c:d@test.example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidAuthURL(tt.url), "url %q", tt.url)
	}
}
