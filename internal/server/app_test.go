package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestBuildNotifier_LogsWithoutSMTP(t *testing.T) {
	n, err := buildNotifier(context.Background(), testConfig(), logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)
}

func TestBuildNotifier_SMTP(t *testing.T) {
	c := testConfig()
	c.SMTPHost = "smtp.example.com"
	c.TemplatesDir = t.TempDir()

	n, err := buildNotifier(context.Background(), c, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPNotifier{}, n)
}

func TestNewApp_UnknownHasher(t *testing.T) {
	c := testConfig()
	c.PasswordHasher = "md5"

	called := false
	orig := openDB
	openDB = func(string) (*sql.DB, error) {
		called = true
		return nil, errors.New("unreachable")
	}
	t.Cleanup(func() { openDB = orig })

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hasher init error")
	assert.False(t, called)
}

func TestNewApp_OpenDBError(t *testing.T) {
	orig := openDB
	openDB = func(string) (*sql.DB, error) {
		return nil, errors.New("bad dsn")
	}
	t.Cleanup(func() { openDB = orig })

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db open error")
}
