// Package enable reads the enablement flag resource that decides whether a
// given client's executions are profiled.
//
// The flag is a small JSON file of the form {"ip": <pattern>, "name":
// <session>}. A missing or unparsable flag means profiling stays off; that is
// policy, not an error condition, so callers treat any load failure as
// "disabled".
package enable

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Flag is the parsed enablement resource.
type Flag struct {
	// IP is the client address pattern: matched as a substring first, then
	// as a regular expression.
	IP string `json:"ip"`

	// Name identifies the profiling session and derives the profile file
	// name.
	Name string `json:"name"`
}

// Load reads and parses the flag file. Any failure (absent, unreadable,
// malformed) returns an error; callers map every error to "disabled".
func Load(path string) (*Flag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flag file: %w", err)
	}

	var f Flag
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse flag file: %w", err)
	}
	if f.IP == "" || f.Name == "" {
		return nil, fmt.Errorf("flag file %s missing ip or name", path)
	}
	return &f, nil
}

// Matches reports whether clientIP satisfies the flag's IP pattern, as a
// substring or as a regular expression. A nil flag matches nothing.
func (f *Flag) Matches(clientIP string) bool {
	if f == nil || f.IP == "" || clientIP == "" {
		return false
	}
	if strings.Contains(clientIP, f.IP) {
		return true
	}
	re, err := regexp.Compile(f.IP)
	if err != nil {
		return false
	}
	return re.MatchString(clientIP)
}

// ProfilePath derives the target profile file under profilesDir from the
// session name. The name is sanitized so a hostile flag cannot point writes
// outside the profiles directory.
func (f *Flag) ProfilePath(profilesDir string) string {
	name := sanitizeName(f.Name)
	if name == "" {
		name = "profile"
	}
	return filepath.Join(profilesDir, name+".json")
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
