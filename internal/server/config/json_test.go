package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	b, err := json.Marshal(data)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	t.Cleanup(func() { os.Args = old })
	os.Args = append([]string{"server"}, args...)
}

func TestParseJson_NoFlag(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c))
	assert.Equal(t, ":8000", c.HTTPAddr)
}

func TestParseJson_OverridesOnlyNamedFields(t *testing.T) {
	path := writeTempJSON(t, "", "config.json", map[string]any{
		"database_dsn":                         "postgres://json",
		"access_token_validity_duration":       "5m",
		"refresh_token_validity_duration":      int64(2 * time.Hour),
		"verification_token_validity_duration": "0s",
		"check_access_revocation":              false,
		"cors_origins":                         []string{"https://x.example"},
		"smtp_port":                            465,
		"password_hasher":                      "argon2",
	})
	withArgs(t, "-config="+path)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c))

	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 2*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, time.Duration(0), c.VerificationTokenValidityDuration)
	assert.False(t, c.CheckAccessRevocation)
	assert.Equal(t, []string{"https://x.example"}, c.CORSOrigins)
	assert.Equal(t, 465, c.SMTPPort)
	assert.Equal(t, HasherArgon2, c.PasswordHasher)

	assert.Equal(t, ":8000", c.HTTPAddr)
	assert.Equal(t, time.Hour, c.ResetTokenValidityDuration)
}

func TestParseJson_MissingFile(t *testing.T) {
	withArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))

	var c Config
	require.Error(t, parseJson(&c))
}

func TestParseJson_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	withArgs(t, "-c", path)

	var c Config
	require.Error(t, parseJson(&c))
}
