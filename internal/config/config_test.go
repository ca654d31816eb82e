package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "firestore", cfg.DocstoreBackend)
	assert.Equal(t, "profiles", cfg.ProfileCollection)
	assert.Equal(t, "accessway", cfg.MongoDatabase)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9999")
	t.Setenv("DOCSTORE_BACKEND", "memory")
	t.Setenv("PROFILE_COLLECTION", "users")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("DEV_JWT_SECRET", "hunter2")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.DocstoreBackend)
	assert.Equal(t, "users", cfg.ProfileCollection)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "hunter2", cfg.DevJWTSecret)
	assert.Equal(t, "json", cfg.LogFormat)
}
