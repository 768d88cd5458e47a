package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("S3_BUCKET", "market")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("PAGE_MAX_TAKE", "25")
	t.Setenv("RATE_LIMIT_DURATION", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("IDP_DOMAIN", "tenant.eu.auth0.com")

	cfg := New()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "market", cfg.S3Bucket)
	assert.True(t, cfg.S3UsePathStyle)
	assert.Equal(t, 25, cfg.PageMaxTake)
	assert.Equal(t, 30*time.Second, cfg.RateLimitDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
	assert.Equal(t, 10, cfg.DBMaxIdleConns)
	assert.Equal(t, time.Hour, cfg.DBConnMaxLifetime)
	assert.Equal(t, "tenant.eu.auth0.com", cfg.IdPDomain)
}

func TestNewFallsBackOnBadValues(t *testing.T) {
	t.Setenv("PAGE_MAX_TAKE", "lots")
	t.Setenv("RATE_LIMIT_DURATION", "soon")
	t.Setenv("S3_USE_PATH_STYLE", "maybe")

	cfg := New()

	assert.Equal(t, 50, cfg.PageMaxTake)
	assert.Equal(t, time.Minute, cfg.RateLimitDuration)
	assert.False(t, cfg.S3UsePathStyle)
}

func TestObjectURLs(t *testing.T) {
	tests := []struct {
		name string
		urls ObjectURLs
		key  string
		want string
	}{
		{"with scheme", ObjectURLs{Scheme: "https", Bucket: "market", Host: "s3.example.com"}, "a+b.jpg", "https://market.s3.example.com/a+b.jpg"},
		{"without scheme", ObjectURLs{Bucket: "market", Host: "s3.example.com/"}, "/a.jpg", "market.s3.example.com/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.urls.URL(tt.key))
		})
	}
}
