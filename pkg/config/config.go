package config

import (
	"time"
)

type DB struct {
	// Driver is "postgres" or "sqlite". Url is a DSN for postgres and a file
	// path for sqlite.
	Driver       string        `envconfig:"DRIVER" default:"postgres"`
	Url          string        `envconfig:"URL"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxLifetime  time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	Migrate      bool          `envconfig:"MIGRATE" default:"true"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:""`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string `envconfig:"BROKERS" default:"localhost:9092"`
	GroupID     string   `envconfig:"GROUP_ID" default:"treasury"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"treasury"`
}

type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
	// Stream is the redis stream (or kafka topic suffix) events go to.
	Stream string `envconfig:"STREAM" default:"events"`
	Redis  *Redis `envconfig:"REDIS"`
	Kafka  *Kafka `envconfig:"KAFKA"`
}

type Oracle struct {
	// Provider is "starknet" or "stub".
	Provider    string        `envconfig:"PROVIDER" default:"stub"`
	RPCURL      string        `envconfig:"RPC_URL" default:"https://starknet-mainnet.public.blastapi.io"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

type Cache struct {
	Driver string        `envconfig:"DRIVER" default:"memory"`
	TTL    time.Duration `envconfig:"TTL" default:"30s"`
	Prefix string        `envconfig:"PREFIX" default:"treasury:"`
	Url    string        `envconfig:"URL"`
}

type Housekeeping struct {
	Enabled bool `envconfig:"ENABLED" default:"true"`
	// Schedule uses robfig/cron syntax, descriptors included.
	Schedule string `envconfig:"SCHEDULE" default:"@every 5m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[treasury]"`
}

type App struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Log          *Log          `envconfig:"LOG"`
	DB           *DB           `envconfig:"DATABASE"`
	EventBus     *EventBus     `envconfig:"EVENT_BUS"`
	Oracle       *Oracle       `envconfig:"ORACLE"`
	Cache        *Cache        `envconfig:"CACHE"`
	Housekeeping *Housekeeping `envconfig:"HOUSEKEEPING"`
}
