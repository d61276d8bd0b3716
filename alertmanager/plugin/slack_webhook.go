package plugin

import (
	"fmt"
	"net/http"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

// KeySlackWebhookURL is the plugin property holding the incoming webhook URL.
const KeySlackWebhookURL = "slack.webhook.url"

type SlackWebhook struct {
	url    string
	client *http.Client
}

func NewSlackWebhook(cfg config.Source) (Plugin, error) {
	url := cfg.GetString(KeySlackWebhookURL, "")
	if url == "" {
		return nil, xerrors.Errorf("%s is not set", KeySlackWebhookURL)
	}
	return &SlackWebhook{
		url:    url,
		client: newHTTPClient(),
	}, nil
}

// SendAlert posts the payload to the Slack incoming webhook as a block message:
// the summary first, then one header/section pair per detail entry.
func (s *SlackWebhook) SendAlert(data *AlertPayload) error {

	type TextBlock struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	type Block struct {
		Type string     `json:"type"`
		Text *TextBlock `json:"text,omitempty"`
	}

	type Payload struct {
		Blocks []Block `json:"blocks"`
	}

	payload := Payload{
		Blocks: []Block{
			{
				Type: "section",
				Text: &TextBlock{
					Type: "mrkdwn",
					Text: ":alert: " + data.Summary,
				},
			},
			{
				Type: "divider",
			},
		},
	}

	for _, key := range sortedDetails(data.Details) {
		payload.Blocks = append(payload.Blocks,
			Block{
				Type: "header",
				Text: &TextBlock{
					Type: "plain_text",
					Text: key,
				},
			},
			Block{
				Type: "section",
				Text: &TextBlock{
					Type: "plain_text",
					Text: fmt.Sprintf("%v", data.Details[key]),
				},
			},
			Block{
				Type: "divider",
			},
		)
	}

	return postJSON(s.client, s.url, payload, func(resp *http.Response) error {
		switch resp.StatusCode {
		case http.StatusOK, http.StatusAccepted:
			log.Debug("Accepted: The event has been accepted by Slack Webhook.")
			return nil
		case http.StatusBadRequest:
			switch bd := readBody(resp); bd {
			case "invalid_payload":
				return xerrors.Errorf("Bad request: the data sent in your request cannot be understood as presented; verify your content body matches your content type and is structurally valid.")
			case "user_not_found":
				return xerrors.Errorf("Bad request: the user used in your request does not actually exist.")
			default:
				return xerrors.Errorf("Bad request: payload JSON is invalid %s", bd)
			}
		case http.StatusForbidden:
			return xerrors.Errorf("Forbidden: %s", readBody(resp))
		case http.StatusNotFound:
			return xerrors.Errorf("Not Found: the channel associated with your request does not exist.")
		case http.StatusGone:
			return xerrors.Errorf("Gone: the channel has been archived and doesn't accept further messages, even from your incoming webhook.")
		default:
			log.Errorw("Unexpected Slack response", "status", resp.Status)
			return xerrors.Errorf("Unexpected HTTP response: %s", resp.Status)
		}
	})
}
