// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device

	if d.ID == "" {
		return fmt.Errorf("device.id is required")
	}
	if strings.ContainsAny(d.ID, "/+#") {
		return fmt.Errorf("device %q: id must not contain MQTT topic characters", d.ID)
	}
	if d.Endpoint == "" {
		return fmt.Errorf("device %q: endpoint is required", d.ID)
	}

	switch d.Transport {
	case "tcp":
	case "rtu":
		switch strings.ToUpper(d.Serial.Parity) {
		case "N", "E", "O":
		default:
			return fmt.Errorf("device %q: serial.parity must be N, E or O, got %q", d.ID, d.Serial.Parity)
		}
		if d.Serial.DataBits < 5 || d.Serial.DataBits > 8 {
			return fmt.Errorf("device %q: serial.data_bits must be 5..8, got %d", d.ID, d.Serial.DataBits)
		}
		if d.Serial.StopBits != 1 && d.Serial.StopBits != 2 {
			return fmt.Errorf("device %q: serial.stop_bits must be 1 or 2, got %d", d.ID, d.Serial.StopBits)
		}
	default:
		return fmt.Errorf("device %q: transport must be tcp or rtu, got %q", d.ID, d.Transport)
	}

	if d.TimeoutMs <= 0 {
		return fmt.Errorf("device %q: timeout_ms must be > 0", d.ID)
	}

	// ------------------------------------------------------------
	// TRANSACTIONS + POLL
	// ------------------------------------------------------------

	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be >= 1, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.DelayMs < 0 {
		return fmt.Errorf("retry.delay_ms must be >= 0, got %d", cfg.Retry.DelayMs)
	}
	if cfg.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0, got %d", cfg.Poll.IntervalMs)
	}
	if cfg.Poll.TimeoutMs <= 0 {
		return fmt.Errorf("poll.timeout_ms must be > 0, got %d", cfg.Poll.TimeoutMs)
	}
	if cfg.Override.DurationMinutes <= 0 {
		return fmt.Errorf("override.duration_minutes must be > 0, got %d", cfg.Override.DurationMinutes)
	}

	// ------------------------------------------------------------
	// SINKS (OPT-IN)
	// ------------------------------------------------------------

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
		}
		if strings.ContainsAny(cfg.MQTT.TopicPrefix, "+#") {
			return fmt.Errorf("mqtt.topic_prefix must not contain wildcards")
		}
	}

	if cfg.InfluxDB.Enabled {
		if cfg.InfluxDB.URL == "" {
			return fmt.Errorf("influxdb.url is required when influxdb is enabled")
		}
		if cfg.InfluxDB.Org == "" || cfg.InfluxDB.Bucket == "" {
			return fmt.Errorf("influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if cfg.Datadog.Enabled && cfg.Datadog.Addr == "" {
		return fmt.Errorf("datadog.addr is required when datadog is enabled")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}

	return nil
}
