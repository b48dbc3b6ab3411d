// internal/config/normalize.go
package config

import (
	"net"
	"strings"
)

// DefaultPort is the TCP port of the Etatherm Modbus gateway.
const DefaultPort = "50001"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// DEVICE ENDPOINT
	// ------------------------------------------------------------

	// A bare host gets the gateway's default port.
	if cfg.Device.Transport == "tcp" {
		if _, _, err := net.SplitHostPort(cfg.Device.Endpoint); err != nil {
			cfg.Device.Endpoint = net.JoinHostPort(cfg.Device.Endpoint, DefaultPort)
		}
	}
	cfg.Device.Serial.Parity = strings.ToUpper(cfg.Device.Serial.Parity)

	// ------------------------------------------------------------
	// TOPICS + LEVELS
	// ------------------------------------------------------------

	cfg.MQTT.TopicPrefix = strings.Trim(cfg.MQTT.TopicPrefix, "/")
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
}
