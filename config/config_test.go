package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"APP_PORT", "APP_ENV", "LOG_LEVEL", "DB_PATH", "JWT_SECRET", "CORS_ORIGINS", "ADMIN_USER"} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, c.App.Port)
	assert.Equal(t, "development", c.App.Env)
	assert.Equal(t, "nomina.db", c.DB.Path)
	assert.Equal(t, "admin", c.Auth.AdminUser)
	assert.NotEmpty(t, c.Auth.Secret)
	assert.Nil(t, c.App.CORSOrigins)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("ADMIN_USER", "root")

	c, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 9090, c.App.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.App.CORSOrigins)
	assert.Equal(t, "root", c.Auth.AdminUser)
	level, _ := c.Level()
	assert.Equal(t, slog.LevelDebug, level)
}

func TestFromEnv_SecretRequiredOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", c.Auth.Secret)
}

func TestFromEnv_Invalid(t *testing.T) {
	for name, env := range map[string][2]string{
		"port":  {"APP_PORT", "http"},
		"range": {"APP_PORT", "70000"},
		"env":   {"APP_ENV", "qa"},
		"level": {"LOG_LEVEL", "loud"},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(env[0], env[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
