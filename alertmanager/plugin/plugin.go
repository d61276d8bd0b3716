package plugin

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("alerthub/alertplugins")

// EmailChannel is the reserved registry key of the built-in email channel.
const EmailChannel = "email"

// Plugin is the capability every alert channel must satisfy.
type Plugin interface {
	SendAlert(data *AlertPayload) error
}

type AlertPayload struct {
	Summary  string
	Severity string
	Source   string
	Details  map[string]interface{}
	Time     time.Time
}

// Descriptor is a loaded alert channel as held by the registry.
type Descriptor struct {
	Name    string
	Alerter Plugin
	// Origin names where the entry type was resolved from; diagnostics only.
	Origin string
}
