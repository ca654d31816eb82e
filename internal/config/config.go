package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string

	// DocstoreBackend selects the document backend: firestore, mongo, or
	// memory (local development only).
	DocstoreBackend   string
	ProfileCollection string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	StorageBucket           string

	MongoURI      string
	MongoDatabase string

	// DevJWTSecret enables the HS256 token path for local development when
	// Firebase credentials are not configured.
	DevJWTSecret string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	return &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		DocstoreBackend:         getEnv("DOCSTORE_BACKEND", "firestore"),
		ProfileCollection:       getEnv("PROFILE_COLLECTION", "profiles"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "accessway"),
		DevJWTSecret:            getEnv("DEV_JWT_SECRET", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
