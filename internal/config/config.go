package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"messenger-service/internal/db"
	"messenger-service/internal/ws"
)

const StorageMemory = "memory"

type Config struct {
	Port            int           `env:"PORT,default=8083"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	StorageDriver   string        `env:"STORAGE_DRIVER,default=memory"`
	DatabaseDSN     string        `env:"DB_DSN"`
	JWTSecret       string        `env:"JWT_SECRET,required=true"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,default=24h"`
	BroadcastPolicy string        `env:"BROADCAST_POLICY,default=all"`
	WSSendTimeout   time.Duration `env:"WS_SEND_TIMEOUT,default=10s"`
	WSSendBuffer    int           `env:"WS_SEND_BUFFER,default=64"`
	WSPingInterval  time.Duration `env:"WS_PING_INTERVAL,default=30s"`
	AMQPURL         string        `env:"AMQP_URL"`
	AMQPExchange    string        `env:"AMQP_EXCHANGE,default=messenger"`
	AuditRoutingKey string        `env:"AUDIT_ROUTING_KEY,default=audit.messenger"`
	RelayBuffer     int           `env:"RELAY_BUFFER,default=256"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName     string        `env:"SERVICE_NAME,default=messenger-service"`
	Environment     string        `env:"ENVIRONMENT,default=local"`
	DebugRoutes     bool          `env:"DEBUG_ROUTES,default=false"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case db.DriverPostgres, db.DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DB_DSN is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if _, err := ws.ParsePolicy(c.BroadcastPolicy); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// HubOptions translates the websocket settings.
func (c Config) HubOptions() ws.Options {
	policy, _ := ws.ParsePolicy(c.BroadcastPolicy)
	return ws.Options{
		Policy:       policy,
		SendTimeout:  c.WSSendTimeout,
		SendBuffer:   c.WSSendBuffer,
		PingInterval: c.WSPingInterval,
	}
}
