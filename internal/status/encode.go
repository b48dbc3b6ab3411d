// internal/status/encode.go
package status

import "encoding/json"

type payload struct {
	Health         string `json:"health"`
	HealthCode     uint16 `json:"health_code"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`
}

// Encode converts a Snapshot into the JSON status document.
// No IO. No side effects.
func Encode(s Snapshot) []byte {
	// Marshal of a flat struct of strings and integers cannot fail.
	b, _ := json.Marshal(payload{
		Health:         HealthName(s.Health),
		HealthCode:     s.Health,
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
	})
	return b
}
