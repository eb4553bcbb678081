package config

import (
	"time"
)

const (
	StoreFirestore = "firestore"
	StoreMongoDB   = "mongodb"
	StoreMemory    = "memory"
)

type DatabaseConfig struct {
	// Provider selects the user record store.
	Provider        string        `yaml:"provider"`
	UsersCollection string        `yaml:"users_collection"`
	SeedFile        string        `yaml:"seed_file"`
	URI             string        `yaml:"uri"`
	Database        string        `yaml:"database"`
	MaxPoolSize     int           `yaml:"max_pool_size"`
	MinPoolSize     int           `yaml:"min_pool_size"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	SocketTimeout   time.Duration `yaml:"socket_timeout"`
	RunMigrations   bool          `yaml:"run_migrations"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Provider:        getEnv("STORE_PROVIDER", StoreFirestore),
		UsersCollection: getEnv("USERS_COLLECTION", "users"),
		SeedFile:        getEnv("SEED_FILE", ""),
		URI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:        getEnv("MONGODB_DATABASE", "teambuilder"),
		MaxPoolSize:     getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:     getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout:  getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:   getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		RunMigrations:   getEnvAsBool("MONGODB_RUN_MIGRATIONS", true),
	}
}
