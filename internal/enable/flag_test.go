package enable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlag(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiler-flag.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFlag(t, `{"ip": "203.0.113.", "name": "debug-session"}`)

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.", f.IP)
	assert.Equal(t, "debug-session", f.Name)
}

func TestLoad_Absent(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeFlag(t, "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse flag file")
}

func TestLoad_MissingFields(t *testing.T) {
	_, err := Load(writeFlag(t, `{"ip": "1.2.3.4"}`))
	assert.Error(t, err)

	_, err = Load(writeFlag(t, `{"name": "x"}`))
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		clientIP string
		want     bool
	}{
		{"exact", "203.0.113.7", "203.0.113.7", true},
		{"substring prefix", "203.0.113.", "203.0.113.42", true},
		{"substring miss", "203.0.113.", "198.51.100.4", false},
		{"regex", `^10\.0\.\d+\.\d+$`, "10.0.3.9", true},
		{"regex miss", `^10\.0\.\d+\.\d+$`, "192.168.0.1", false},
		{"invalid regex falls back to substring", "10.0.0.1[", "x10.0.0.1[y", true},
		{"empty client", "203.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Flag{IP: tt.pattern, Name: "s"}
			assert.Equal(t, tt.want, f.Matches(tt.clientIP))
		})
	}
}

func TestMatches_NilFlag(t *testing.T) {
	var f *Flag
	assert.False(t, f.Matches("203.0.113.7"))
}

func TestProfilePath(t *testing.T) {
	f := &Flag{IP: "x", Name: "debug-session"}
	assert.Equal(t, "/var/profiles/debug-session.json", f.ProfilePath("/var/profiles"))
}

func TestProfilePath_SanitizesName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"traversal", "../../etc/cron.d/evil", "/var/profiles/evil.json"},
		{"separators stripped", "a/b", "/var/profiles/b.json"},
		{"dotfile", "..", "/var/profiles/profile.json"},
		{"odd characters", "my session!", "/var/profiles/mysession.json"},
		{"empty", "   ", "/var/profiles/profile.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Flag{IP: "x", Name: tt.in}
			assert.Equal(t, tt.want, f.ProfilePath("/var/profiles"))
		})
	}
}
