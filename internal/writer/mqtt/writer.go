// internal/writer/mqtt/writer.go
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mq "github.com/tamzrod/etatherm-modbus/internal/mqtt"
	"github.com/tamzrod/etatherm-modbus/internal/poller"
	"github.com/tamzrod/etatherm-modbus/internal/status"
)

// Publisher is the exact contract this sink uses.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

type zoneConfig struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

type zoneState struct {
	Name     string `json:"name"`
	Current  int    `json:"current"`
	Required int    `json:"required"`
	Flag     uint8  `json:"flag"`
	FlagName string `json:"flag_name"`
	Mode     string `json:"mode"`
	Action   string `json:"action"`
	At       string `json:"at"`
}

// Writer publishes zone config (once per change), zone state (every poll)
// and device status, all retained.
type Writer struct {
	pub    Publisher
	topics mq.Topics

	mu        sync.Mutex
	announced map[int]zoneConfig
}

func New(pub Publisher, topics mq.Topics) *Writer {
	return &Writer{
		pub:       pub,
		topics:    topics,
		announced: make(map[int]zoneConfig),
	}
}

// Reset forgets announced zone configs so the next poll republishes them.
// Called after a broker reconnect.
func (w *Writer) Reset() {
	w.mu.Lock()
	w.announced = make(map[int]zoneConfig)
	w.mu.Unlock()
}

// Write publishes a successful poll. Failed polls are reported via status only.
func (w *Writer) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []string

	for _, z := range res.Zones {
		cfg := zoneConfig{Name: z.Name, Min: z.Min, Max: z.Max}
		if prev, ok := w.announced[z.Pos]; !ok || prev != cfg {
			if err := w.publishJSON(w.topics.ZoneConfig(z.Pos), cfg); err != nil {
				errs = append(errs, fmt.Sprintf("zone=%d config: %v", z.Pos, err))
			} else {
				w.announced[z.Pos] = cfg
			}
		}

		st := zoneState{
			Name:     z.Name,
			Current:  z.Current,
			Required: z.Required,
			Flag:     uint8(z.Flag),
			FlagName: z.Flag.String(),
			Mode:     string(z.Mode),
			Action:   string(z.Action),
			At:       res.At.UTC().Format(time.RFC3339),
		}
		if err := w.publishJSON(w.topics.ZoneState(z.Pos), st); err != nil {
			errs = append(errs, fmt.Sprintf("zone=%d state: %v", z.Pos, err))
		}
	}

	if len(errs) > 0 {
		return errors.New("mqtt writer: " + strings.Join(errs, " | "))
	}
	return nil
}

// WriteStatus publishes the device health document.
func (w *Writer) WriteStatus(s status.Snapshot) error {
	if err := w.pub.Publish(w.topics.Status(), status.Encode(s), true); err != nil {
		return fmt.Errorf("mqtt writer: status: %w", err)
	}
	return nil
}

func (w *Writer) publishJSON(topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.pub.Publish(topic, b, true)
}
