// Package config loads pool configuration files. JSON is the canonical
// format; YAML is accepted for hand-maintained files, selected by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zpdzap/orgpool/internal/devhub"
)

// DefaultExpiryDays applies when neither the pool nor a consumer sets one.
const DefaultExpiryDays = 2

// File is a whole pool config file.
type File struct {
	Pool      Pool   `json:"pool" yaml:"pool"`
	PoolUsers []User `json:"poolUsers" yaml:"poolUsers"`
}

// Pool holds the pool-wide settings.
type Pool struct {
	Tag            string           `json:"tag" yaml:"tag"`
	Expiry         int              `json:"expiry" yaml:"expiry"`
	ConfigFilePath string           `json:"config_file_path" yaml:"config_file_path"`
	ScriptFilePath string           `json:"script_file_path" yaml:"script_file_path"`
	RelaxIPRanges  []devhub.IPRange `json:"relax_ip_ranges" yaml:"relax_ip_ranges"`
	RelaxAllIPs    bool             `json:"relax_all_ip_ranges" yaml:"relax_all_ip_ranges"`
	MaxAllocation  int              `json:"max_allocation" yaml:"max_allocation"`
}

// User is one consumer's demand profile.
type User struct {
	Username      string `json:"username" yaml:"username"`
	Priority      int    `json:"priority" yaml:"priority"`
	MinAllocation int    `json:"minAllocation" yaml:"minAllocation"`
	MaxAllocation int    `json:"maxAllocation" yaml:"maxAllocation"`
	ExpiryDays    int    `json:"expiryDays" yaml:"expiryDays"`
}

// Load reads and validates a pool config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var f File
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.applyDefaults()
	return &f, nil
}

// Validate checks the fields a run cannot proceed without.
func (f *File) Validate() error {
	if f.Pool.Tag == "" {
		return fmt.Errorf("pool.tag is required")
	}
	if f.Pool.ConfigFilePath == "" {
		return fmt.Errorf("pool.config_file_path is required")
	}
	if f.TagOnly() {
		if f.Pool.MaxAllocation <= 0 {
			return fmt.Errorf("pool.max_allocation must be positive when poolUsers is absent")
		}
		return nil
	}
	for i, u := range f.PoolUsers {
		if u.MaxAllocation <= 0 {
			return fmt.Errorf("poolUsers[%d]: maxAllocation must be positive", i)
		}
		if u.MinAllocation > u.MaxAllocation {
			return fmt.Errorf("poolUsers[%d]: minAllocation exceeds maxAllocation", i)
		}
	}
	return nil
}

// TagOnly reports whether this config runs in single-consumer mode.
func (f *File) TagOnly() bool { return len(f.PoolUsers) == 0 }

// Users returns the consumer list, synthesizing one consumer from the pool
// settings in tag-only mode.
func (f *File) Users() []User {
	if f.TagOnly() {
		return []User{{
			Priority:      1,
			MaxAllocation: f.Pool.MaxAllocation,
			ExpiryDays:    f.Pool.Expiry,
		}}
	}
	return f.PoolUsers
}

func (f *File) applyDefaults() {
	if f.Pool.Expiry <= 0 {
		f.Pool.Expiry = DefaultExpiryDays
	}
	for i := range f.PoolUsers {
		if f.PoolUsers[i].ExpiryDays <= 0 {
			f.PoolUsers[i].ExpiryDays = f.Pool.Expiry
		}
	}
}
