// Package auth holds the login gate for the trainer console. The credential
// check is a placeholder behind a swappable interface; it is a convenience
// gate, not a security boundary.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default placeholder credentials, overridable via configuration.
const (
	DefaultUsername = "trainer"
	DefaultPassword = "letmein"
)

// Authenticator validates submitted credentials.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// Static compares against fixed credentials.
type Static struct {
	Username string
	Password string
}

// NewStatic returns a Static authenticator, falling back to the default
// placeholder credentials for any empty field.
func NewStatic(username, password string) Static {
	if username == "" {
		username = DefaultUsername
	}
	if password == "" {
		password = DefaultPassword
	}
	return Static{Username: username, Password: password}
}

func (s Static) Authenticate(username, password string) bool {
	return username == s.Username && password == s.Password
}

type flagState struct {
	Authenticated bool `json:"authenticated"`
}

// FlagStore persists the single authenticated flag across process restarts,
// the way the browser client kept it in local storage. Cleared only by
// explicit logout.
type FlagStore struct {
	path string
}

// NewFlagStore stores the flag at the given file path.
func NewFlagStore(path string) *FlagStore {
	return &FlagStore{path: path}
}

// IsSet reports whether a previous login survived. Unreadable or garbled
// state files count as logged out.
func (f *FlagStore) IsSet() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	var state flagState
	if err := json.Unmarshal(data, &state); err != nil {
		return false
	}
	return state.Authenticated
}

// Set records a successful login. The write goes through a temp file and
// rename so a crash cannot leave a half-written state file.
func (f *FlagStore) Set() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}

	data, err := json.Marshal(flagState{Authenticated: true})
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Clear removes the flag on logout. A missing file is not an error.
func (f *FlagStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing state file: %w", err)
	}
	return nil
}
