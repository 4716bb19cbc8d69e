package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "guestbook", cfg.App.Name)
	assert.Equal(t, "fr", cfg.App.Locale)
	assert.Equal(t, 2, cfg.API.CommentsPerPage)
	assert.Equal(t, 30, cfg.API.ConferencesPerPage)
	assert.Equal(t, "comments", cfg.Kafka.Topics.Comments)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiresIn)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_COMMENTS_PER_PAGE", "10")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, 10, cfg.API.CommentsPerPage)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.True(t, cfg.Tracing.Enabled)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRatio, 1e-9)
}

func TestLoadRejectsNonPositivePageSize(t *testing.T) {
	t.Setenv("API_COMMENTS_PER_PAGE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveRateLimitPeriod(t *testing.T) {
	for _, period := range []string{"0", "-5"} {
		t.Run(period, func(t *testing.T) {
			t.Setenv("API_RATE_LIMIT_PERIOD", period)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "API_RATE_LIMIT_PERIOD")
		})
	}
}

func TestMalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("APP_DEBUG", "sometimes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.App.Debug)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5433", Username: "u", Password: "p", Database: "gb", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=gb sslmode=disable", db.DSN())

	r := RedisConfig{Host: "cache", Port: "6380"}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
