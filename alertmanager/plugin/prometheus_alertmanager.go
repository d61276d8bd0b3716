package plugin

import (
	"net/http"
	"time"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

const (
	KeyAlertManagerURL     = "alertmanager.url"
	DefaultAlertManagerURL = "http://localhost:9093/api/v2/alerts"
)

type PrometheusAlertManager struct {
	url    string
	client *http.Client
}

func NewPrometheusAlertManager(cfg config.Source) (Plugin, error) {
	return &PrometheusAlertManager{
		url:    cfg.GetString(KeyAlertManagerURL, DefaultAlertManagerURL),
		client: newHTTPClient(),
	}, nil
}

// SendAlert sends one Alertmanager alert per detail entry.
// API reference: https://raw.githubusercontent.com/prometheus/alertmanager/main/api/v2/openapi.yaml
func (p *PrometheusAlertManager) SendAlert(data *AlertPayload) error {
	if len(data.Details) == 0 {
		return nil
	}

	type amPayload struct {
		StartsAt    time.Time              `json:"startsAt"`
		EndsAt      *time.Time             `json:"EndsAt,omitempty"`
		Annotations map[string]interface{} `json:"annotations"`
		Labels      map[string]string      `json:"labels"`
	}

	var alerts []*amPayload
	for _, k := range sortedDetails(data.Details) {
		alerts = append(alerts, &amPayload{
			StartsAt: data.Time,
			Labels: map[string]string{
				"alertName": k,
				"severity":  data.Severity,
				"instance":  data.Source,
			},
			Annotations: map[string]interface{}{
				"summary": data.Summary,
				"details": data.Details[k],
			},
		})
	}

	return postJSON(p.client, p.url, alerts, func(resp *http.Response) error {
		switch resp.StatusCode {
		case http.StatusOK:
			return nil
		case http.StatusBadRequest, http.StatusInternalServerError:
			return xerrors.Errorf("error: %s", readBody(resp))
		default:
			return xerrors.Errorf("unexpected HTTP response: %s", resp.Status)
		}
	})
}
