// Nobody associated with this software's development has any business relationship to pagerduty.
// This is provided as a convenient trampoline to the operator's alert system of choice.

package plugin

import (
	"net/http"
	"time"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

const (
	KeyPagerDutyEventURL       = "pagerduty.event.url"
	KeyPagerDutyIntegrationKey = "pagerduty.integration.key"

	DefaultPagerDutyEventURL = "https://events.pagerduty.com/v2/enqueue"
)

type PagerDuty struct {
	eventURL       string
	integrationKey string
	client         *http.Client
}

func NewPagerDuty(cfg config.Source) (Plugin, error) {
	key := cfg.GetString(KeyPagerDutyIntegrationKey, "")
	if key == "" {
		return nil, xerrors.Errorf("%s is not set", KeyPagerDutyIntegrationKey)
	}
	return &PagerDuty{
		eventURL:       cfg.GetString(KeyPagerDutyEventURL, DefaultPagerDutyEventURL),
		integrationKey: key,
		client:         newHTTPClient(),
	}, nil
}

// SendAlert triggers a PagerDuty Events API v2 event carrying the payload
// details as custom_details. Rate limiting (429) and 5xx answers are retried
// with a growing pause.
func (p *PagerDuty) SendAlert(data *AlertPayload) error {

	type pdPayload struct {
		Summary       string      `json:"summary"`
		Severity      string      `json:"severity"`
		Source        string      `json:"source"`
		Component     string      `json:"component,omitempty"`
		Group         string      `json:"group,omitempty"`
		Class         string      `json:"class,omitempty"`
		CustomDetails interface{} `json:"custom_details,omitempty"`
	}

	type pdData struct {
		RoutingKey  string     `json:"routing_key"`
		EventAction string     `json:"event_action"`
		Payload     *pdPayload `json:"payload"`
	}

	payload := &pdData{
		RoutingKey:  p.integrationKey,
		EventAction: "trigger",
		Payload: &pdPayload{
			Summary:       data.Summary,
			Severity:      data.Severity,
			Source:        data.Source,
			CustomDetails: data.Details,
		},
	}

	attempt := 0
	return postJSON(p.client, p.eventURL, payload, func(resp *http.Response) error {
		attempt++
		switch {
		case resp.StatusCode == http.StatusAccepted:
			log.Debug("Accepted: The event has been accepted by PagerDuty.")
			return nil
		case resp.StatusCode == http.StatusBadRequest:
			return xerrors.Errorf("Bad request: payload JSON is invalid %s", readBody(resp))
		case resp.StatusCode == http.StatusTooManyRequests:
			log.Debug("Too many API calls, retrying after backoff...")
			time.Sleep(time.Duration(attempt) * sendDelay)
			return xerrors.Errorf("rate limited by PagerDuty")
		case resp.StatusCode >= 500:
			log.Debug("Server error, retrying after backoff...")
			time.Sleep(time.Duration(attempt) * sendDelay)
			return xerrors.Errorf("PagerDuty server error: %s", resp.Status)
		default:
			log.Errorw("Unexpected PagerDuty response", "status", resp.Status)
			return xerrors.Errorf("Unexpected HTTP response: %s", resp.Status)
		}
	})
}
