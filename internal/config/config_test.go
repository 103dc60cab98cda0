package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "pagegate.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, ":14393", c.ListenAddr)
	assert.Equal(t, "/pagegate_data", c.DataDir)
	assert.Equal(t, "/pagegate_data/credentials.yaml", c.StorePath)
	assert.Equal(t, "/pagegate_data/audit.db", c.AuditPath())
	assert.Equal(t, "pagegate_session", c.Session.CookieName)
	assert.Equal(t, 24*time.Hour, c.Session.TTL)
	assert.Equal(t, DefaultPages, c.Pages)
	assert.True(t, c.FileLogging())
	assert.NoError(t, c.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	p := writeConfig(t, `
listen_addr: ":9000"
data_dir: /srv/pg
audit_db: ""
session:
  cookie_name: sid
  ttl: 2h
pages: [Home, Info]
logging:
  level: debug
  file: false
`)
	t.Setenv("PAGEGATE_LISTEN", ":9100")

	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":9100", c.ListenAddr)
	assert.Equal(t, "/srv/pg/credentials.yaml", c.StorePath)
	assert.Equal(t, "", c.AuditPath())
	assert.Equal(t, "sid", c.Session.CookieName)
	assert.Equal(t, 2*time.Hour, c.Session.TTL)
	assert.Equal(t, []string{"Home", "Info"}, c.Pages)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.False(t, c.FileLogging())
}

func TestLoad_EnvPages(t *testing.T) {
	t.Setenv("PAGEGATE_PAGES", "Home, Page 1 ,Admin")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Page 1", "Admin"}, c.Pages)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "listen_addr: [unterminated"))
	assert.Error(t, err)

	t.Setenv("PAGEGATE_SESSION_TTL", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		ok    bool
	}{
		{"default", DefaultPages, true},
		{"missing home", []string{"Info"}, false},
		{"colliding keys", []string{"Home", "Page 1", "Page_1"}, false},
		{"blank id", []string{"Home", " "}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			c.Pages = tc.pages
			if tc.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestValidate_SessionTTL(t *testing.T) {
	c := Default()
	c.Session.TTL = -time.Minute
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")

	t.Setenv("PAGEGATE_SESSION_TTL", "0s")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, c.Session.TTL, "zero falls back to the default")
}
