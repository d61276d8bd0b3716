package plugin

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/curiostorage/alerthub/deps/config"
)

func TestBuiltinsConstructors(t *testing.T) {
	for name, ctor := range Builtins() {
		require.Contains(t, name, PkgPath+".")
		_, ok := ctor.(func(config.Source) (Plugin, error))
		require.True(t, ok, "%s has an unexpected constructor type %T", name, ctor)
	}
}

func TestSlackWebhook(t *testing.T) {
	fastRetries(t, 1)
	srv := newCaptureServer(t, "ok", http.StatusOK)

	p, err := NewSlackWebhook(config.NewProps(map[string]string{KeySlackWebhookURL: srv.URL}))
	require.NoError(t, err)
	require.NoError(t, p.SendAlert(testPayload()))

	var got struct {
		Blocks []struct {
			Type string `json:"type"`
			Text *struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"blocks"`
	}
	srv.decode(t, 0, &got)

	var texts []string
	for _, b := range got.Blocks {
		if b.Text != nil {
			texts = append(texts, b.Text.Text)
		}
	}
	want := []string{":alert: WindowPost failed", "error", "no sectors", "task", "wdpost"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("unexpected slack blocks (-want +got):\n%s", diff)
	}
}

func TestSlackWebhookErrors(t *testing.T) {
	_, err := NewSlackWebhook(config.NewProps(nil))
	require.ErrorContains(t, err, KeySlackWebhookURL)

	fastRetries(t, 2)
	srv := newCaptureServer(t, "invalid_payload", http.StatusBadRequest)
	p, err := NewSlackWebhook(config.NewProps(map[string]string{KeySlackWebhookURL: srv.URL}))
	require.NoError(t, err)

	err = p.SendAlert(testPayload())
	require.ErrorContains(t, err, "cannot be understood")
	require.Equal(t, 2, srv.count())
}

func TestPagerDuty(t *testing.T) {
	fastRetries(t, 3)
	srv := newCaptureServer(t, "", http.StatusTooManyRequests, http.StatusAccepted)

	p, err := NewPagerDuty(config.NewProps(map[string]string{
		KeyPagerDutyEventURL:       srv.URL,
		KeyPagerDutyIntegrationKey: "routing-key",
	}))
	require.NoError(t, err)
	require.NoError(t, p.SendAlert(testPayload()))
	require.Equal(t, 2, srv.count())

	var got struct {
		RoutingKey  string `json:"routing_key"`
		EventAction string `json:"event_action"`
		Payload     struct {
			Summary       string            `json:"summary"`
			Severity      string            `json:"severity"`
			Source        string            `json:"source"`
			CustomDetails map[string]string `json:"custom_details"`
		} `json:"payload"`
	}
	srv.decode(t, 1, &got)
	require.Equal(t, "routing-key", got.RoutingKey)
	require.Equal(t, "trigger", got.EventAction)
	require.Equal(t, "WindowPost failed", got.Payload.Summary)
	require.Equal(t, "critical", got.Payload.Severity)
	require.Equal(t, "scheduler-1", got.Payload.Source)
	require.Equal(t, map[string]string{"task": "wdpost", "error": "no sectors"}, got.Payload.CustomDetails)
}

func TestPagerDutyNeedsKey(t *testing.T) {
	_, err := NewPagerDuty(config.NewProps(nil))
	require.ErrorContains(t, err, KeyPagerDutyIntegrationKey)
}

func TestPrometheusAlertManager(t *testing.T) {
	fastRetries(t, 1)
	srv := newCaptureServer(t, "", http.StatusOK)

	p, err := NewPrometheusAlertManager(config.NewProps(map[string]string{KeyAlertManagerURL: srv.URL}))
	require.NoError(t, err)

	// nothing to report
	require.NoError(t, p.SendAlert(&AlertPayload{Summary: "idle"}))
	require.Zero(t, srv.count())

	require.NoError(t, p.SendAlert(testPayload()))

	var got []struct {
		StartsAt    time.Time         `json:"startsAt"`
		Labels      map[string]string `json:"labels"`
		Annotations map[string]string `json:"annotations"`
	}
	srv.decode(t, 0, &got)
	require.Len(t, got, 2)
	require.Equal(t, "error", got[0].Labels["alertName"])
	require.Equal(t, "task", got[1].Labels["alertName"])
	require.Equal(t, "critical", got[1].Labels["severity"])
	require.Equal(t, "wdpost", got[1].Annotations["details"])
	require.True(t, got[0].StartsAt.Equal(testPayload().Time))
}

func TestPrometheusAlertManagerServerError(t *testing.T) {
	fastRetries(t, 2)
	srv := newCaptureServer(t, "alertmanager overloaded", http.StatusInternalServerError)

	p, err := NewPrometheusAlertManager(config.NewProps(map[string]string{KeyAlertManagerURL: srv.URL}))
	require.NoError(t, err)
	require.ErrorContains(t, p.SendAlert(testPayload()), "alertmanager overloaded")
	require.Equal(t, 2, srv.count())
}

func TestLarkCustomBot(t *testing.T) {
	fastRetries(t, 1)
	srv := newCaptureServer(t, `{"code":0,"msg":"success"}`, http.StatusOK)

	p, err := NewLarkCustomBot(config.NewProps(map[string]string{
		KeyLarkWebhookURL: srv.URL,
		KeyLarkSecret:     "s3cret",
		KeyLarkAtUserIDs:  "ou_1,ou_2,ou_3",
		KeyLarkFooter:     "runbook: https://example.com/runbook",
	}))
	require.NoError(t, err)
	require.NoError(t, p.SendAlert(testPayload()))

	var got struct {
		Timestamp int64  `json:"timestamp"`
		Sign      string `json:"sign"`
		MsgType   string `json:"msg_type"`
		Card      struct {
			Elements []struct {
				Tag     string `json:"tag"`
				Columns []struct {
					Elements []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"elements"`
				} `json:"columns"`
			} `json:"elements"`
		} `json:"card"`
	}
	srv.decode(t, 0, &got)
	require.Equal(t, "interactive", got.MsgType)
	require.NotZero(t, got.Timestamp)
	require.NotEmpty(t, got.Sign)

	// project/time row, two on-call rows, two details, hr, footer
	require.Len(t, got.Card.Elements, 7)
	require.Len(t, got.Card.Elements[1].Columns, 2)
	require.Len(t, got.Card.Elements[2].Columns, 1)
	require.Contains(t, got.Card.Elements[2].Columns[0].Elements[0].Text.Content, "<at id=ou_3>")
	require.Equal(t, "hr", got.Card.Elements[5].Tag)
}

func TestLarkCustomBotErrorCode(t *testing.T) {
	fastRetries(t, 1)
	srv := newCaptureServer(t, `{"code":19021,"msg":"sign match fail"}`, http.StatusOK)

	p, err := NewLarkCustomBot(config.NewProps(map[string]string{KeyLarkWebhookURL: srv.URL}))
	require.NoError(t, err)
	require.ErrorContains(t, p.SendAlert(testPayload()), "sign match fail")
}

func TestLarkGenSign(t *testing.T) {
	bot := &LarkCustomBot{secret: "s3cret"}
	now := time.Unix(1700000000, 0)

	ts, sign, err := bot.genSign(now)
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), ts)

	_, again, err := bot.genSign(now)
	require.NoError(t, err)
	require.Equal(t, sign, again)

	_, later, err := bot.genSign(now.Add(time.Second))
	require.NoError(t, err)
	require.NotEqual(t, sign, later)
}
