package config

import "time"

// Redis locates the position store. An empty Addr selects the in-memory
// store.
type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix" default:"gospot:position:"`
}

// Kafka locates the trade event topic. No brokers disables publishing.
type Kafka struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"gospot.trades" validate:"required"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
}

// ClickHouse locates the candle table used for historical and live bars.
type ClickHouse struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database" default:"default"`
	Username string   `yaml:"username" default:"default"`
	Password string   `yaml:"password"`
	Table    string   `yaml:"table" default:"candles" validate:"required"`
	Interval string   `yaml:"interval" default:"1m" validate:"required"`
}

// Infra groups the optional external services.
type Infra struct {
	Redis      Redis      `yaml:"redis"`
	Kafka      Kafka      `yaml:"kafka"`
	ClickHouse ClickHouse `yaml:"clickhouse"`
	// CycleInterval is the live trader's evaluation period.
	CycleInterval time.Duration `yaml:"cycle_interval" default:"1m" validate:"gt=0"`
}

// DefaultInfra returns the infra defaults: every service disabled.
func DefaultInfra() Infra {
	var i Infra
	if err := defaultsSet(&i); err != nil {
		panic(err)
	}
	return i
}

// Validate checks the infra settings.
func (i *Infra) Validate() error {
	if err := validate.Struct(i); err != nil {
		return &ValidationError{Problems: describe(err)}
	}
	return nil
}
