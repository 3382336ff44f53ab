package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379"   validate:"min=1000,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"moviedraw_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"moviedraw_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"moviedraw_db"`

	// RevealDelay is the gap between draw-started and draw-result.
	RevealDelay    time.Duration `env:"REVEAL_DELAY"     envDefault:"5s"  validate:"min=0"`
	RoomCodeLength int           `env:"ROOM_CODE_LENGTH" envDefault:"6"   validate:"min=4,max=12"`
	RoomIdleTTL    time.Duration `env:"ROOM_IDLE_TTL"    envDefault:"24h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"   envDefault:"10m" validate:"gt=0"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT"    envDefault:"2s"  validate:"gt=0"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
