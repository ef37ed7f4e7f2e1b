package config

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "drink-service", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverMongo, cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.MongoTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.MinioEnabled())
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("MONGO_TIMEOUT", "3s")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig(logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.MongoTimeout)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.MinioEnabled())
	assert.True(t, cfg.MinioUseSSL)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := LoadConfig(logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTPPort:      "8080",
			StoreDriver:   StoreDriverMongo,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "drinks",
			MongoTimeout:  time.Second,
			JWTSecret:     "secret",
			JWTTTL:        time.Hour,
			SMTPPort:      587,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory needs no mongo", mutate: func(c *Config) { c.StoreDriver = StoreDriverMemory; c.MongoURI = "" }},
		{name: "missing port", mutate: func(c *Config) { c.HTTPPort = "" }, wantErr: "HTTP_PORT"},
		{name: "missing mongo uri", mutate: func(c *Config) { c.MongoURI = "" }, wantErr: "MONGO_URI"},
		{name: "zero timeout", mutate: func(c *Config) { c.MongoTimeout = 0 }, wantErr: "MONGO_TIMEOUT"},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.JWTTTL = 0 }, wantErr: "JWT_TTL"},
		{name: "minio without keys", mutate: func(c *Config) { c.MinioEndpoint = "localhost:9000" }, wantErr: "MINIO_ACCESS_KEY"},
		{name: "smtp without sender", mutate: func(c *Config) { c.SMTPHost = "smtp.example.com" }, wantErr: "SMTP_SENDER"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
