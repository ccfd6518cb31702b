package lib

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	Port          string        `env:"PORT" envDefault:"3000"`
	StoreDriver   string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDatabase string        `env:"MONGO_DATABASE" envDefault:"talentnest"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"./talentnest.db"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"fallback-secret-key"`
	PageSize      int           `env:"FRIEND_PAGE_SIZE" envDefault:"3"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"text"`
	CORSOrigins   string        `env:"CORS_ORIGINS" envDefault:"http://localhost:5173"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig(files ...string) (Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case StoreMongo, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("FRIEND_PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	return nil
}
