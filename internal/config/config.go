// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Retry    RetryConfig    `yaml:"retry"`
	Poll     PollConfig     `yaml:"poll"`
	Override OverrideConfig `yaml:"override"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Datadog  DatadogConfig  `yaml:"datadog"`
	Log      LogConfig      `yaml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID        string       `yaml:"id"`
	Transport string       `yaml:"transport"` // tcp | rtu
	Endpoint  string       `yaml:"endpoint"`  // host[:port] or serial device
	UnitID    uint8        `yaml:"unit_id"`
	TimeoutMs int          `yaml:"timeout_ms"`
	Serial    SerialConfig `yaml:"serial"`
}

type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"` // N | E | O
}

// ---- TRANSACTIONS ----

type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	DelayMs  int `yaml:"delay_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	TimeoutMs  int `yaml:"timeout_ms"`
}

type OverrideConfig struct {
	DurationMinutes int `yaml:"duration_minutes"`
}

// ---- SINKS ----

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // tcp://host:1883
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

type InfluxDBConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

type DatadogConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Environment variables that override secrets from the file.
const (
	EnvMQTTPassword = "ETATHERM_MQTT_PASSWORD"
	EnvInfluxToken  = "ETATHERM_INFLUX_TOKEN"
)

// Load reads a YAML config file and fills defaults for omitted values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. An empty path is a no-op.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays secrets found through getenv (os.Getenv in production).
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvMQTTPassword); v != "" {
		cfg.MQTT.Password = v
	}
	if v := getenv(EnvInfluxToken); v != "" {
		cfg.InfluxDB.Token = v
	}
}

func applyDefaults(cfg *Config) {
	d := &cfg.Device
	if d.ID == "" {
		d.ID = "etatherm"
	}
	if d.Transport == "" {
		d.Transport = "tcp"
	}
	if d.TimeoutMs == 0 {
		d.TimeoutMs = 15000
	}
	if d.Transport == "rtu" {
		if d.Serial.BaudRate == 0 {
			d.Serial.BaudRate = 9600
		}
		if d.Serial.DataBits == 0 {
			d.Serial.DataBits = 8
		}
		if d.Serial.StopBits == 0 {
			d.Serial.StopBits = 1
		}
		if d.Serial.Parity == "" {
			d.Serial.Parity = "N"
		}
	}

	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 10
	}
	if cfg.Retry.DelayMs == 0 {
		cfg.Retry.DelayMs = 1000
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = 15000
	}
	if cfg.Poll.TimeoutMs == 0 {
		cfg.Poll.TimeoutMs = 10000
	}

	if cfg.Override.DurationMinutes == 0 {
		cfg.Override.DurationMinutes = 120
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "etatherm"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "etatherm-" + d.ID
	}
	if cfg.MQTT.QoS == 0 {
		cfg.MQTT.QoS = 1
	}

	if cfg.InfluxDB.Measurement == "" {
		cfg.InfluxDB.Measurement = "etatherm_zone"
	}

	if cfg.Datadog.Addr == "" {
		cfg.Datadog.Addr = "127.0.0.1:8125"
	}
	if cfg.Datadog.Namespace == "" {
		cfg.Datadog.Namespace = "etatherm."
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
