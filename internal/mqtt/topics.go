// internal/mqtt/topics.go
package mqtt

import (
	"strconv"
	"strings"
)

// Topic layout for one device:
//
//	<prefix>/<device>/availability          online | offline (retained, LWT)
//	<prefix>/<device>/status                health JSON (retained)
//	<prefix>/<device>/zone/<pos>/config     name, min, max (retained)
//	<prefix>/<device>/zone/<pos>/state      zone state JSON (retained)
//	<prefix>/<device>/zone/<pos>/set/<cmd>  commands in
type Topics struct {
	Prefix string
	Device string
}

// Command names accepted under .../set/<cmd>.
const (
	CommandTemperature = "temperature"
	CommandMode        = "mode"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

func (t Topics) base() string {
	if t.Prefix == "" {
		return t.Device
	}
	return t.Prefix + "/" + t.Device
}

func (t Topics) Availability() string { return t.base() + "/availability" }

func (t Topics) Status() string { return t.base() + "/status" }

func (t Topics) ZoneConfig(pos int) string {
	return t.base() + "/zone/" + strconv.Itoa(pos) + "/config"
}

func (t Topics) ZoneState(pos int) string {
	return t.base() + "/zone/" + strconv.Itoa(pos) + "/state"
}

func (t Topics) ZoneCommand(pos int, cmd string) string {
	return t.base() + "/zone/" + strconv.Itoa(pos) + "/set/" + cmd
}

// Commands is the subscription filter covering every zone command.
func (t Topics) Commands() string { return t.base() + "/zone/+/set/+" }

// ParseCommand splits a command topic into zone position and command name.
func (t Topics) ParseCommand(topic string) (pos int, cmd string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.base()+"/zone/")
	if !found {
		return 0, "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "set" || parts[2] == "" {
		return 0, "", false
	}
	pos, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", false
	}
	return pos, parts[2], true
}
