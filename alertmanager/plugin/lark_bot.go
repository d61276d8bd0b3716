package plugin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

const (
	KeyLarkWebhookURL = "lark.webhook.url"
	KeyLarkSecret     = "lark.secret"
	// KeyLarkAtUserIDs lists on-call open ids mentioned in every card, in escalation order.
	KeyLarkAtUserIDs = "lark.at.user.ids"
	KeyLarkFooter    = "lark.footer"
)

// LarkCustomBot sends alerts to a Lark Custom Bot.
// More information about Lark Custom Bot can be found at
// https://open.larksuite.com/document/client-docs/bot-v3/add-custom-bot
type LarkCustomBot struct {
	webhookURL string
	secret     string
	atUserIDs  []string
	footer     string
	client     *http.Client
}

func NewLarkCustomBot(cfg config.Source) (Plugin, error) {
	url := cfg.GetString(KeyLarkWebhookURL, "")
	if url == "" {
		return nil, xerrors.Errorf("%s is not set", KeyLarkWebhookURL)
	}
	return &LarkCustomBot{
		webhookURL: url,
		secret:     cfg.GetString(KeyLarkSecret, ""),
		atUserIDs:  cfg.GetStringList(KeyLarkAtUserIDs),
		footer:     cfg.GetString(KeyLarkFooter, ""),
		client:     newHTTPClient(),
	}, nil
}

func (p *LarkCustomBot) SendAlert(data *AlertPayload) error {
	type botData struct {
		Timestamp int64    `json:"timestamp,omitempty"`
		Sign      string   `json:"sign,omitempty"`
		MsgType   string   `json:"msg_type"`
		Card      larkCard `json:"card"`
	}

	payload := &botData{
		MsgType: "interactive",
		Card: larkCard{
			Header: larkHeader{
				Template: "red",
				Title: larkText{
					Content: fmt.Sprintf("%s %s - %s", data.Summary, data.Severity, data.Source),
					Tag:     "plain_text",
				},
			},
			Elements: []larkElement{
				larkColumns(
					fmt.Sprintf("**🔴 Project:**\n%s", data.Source),
					fmt.Sprintf("**🕐 Time:**\n%s", data.Time.Format(time.RFC3339)),
				),
			},
		},
	}

	// two on-call mentions per row
	for i := 0; i < len(p.atUserIDs); i += 2 {
		var cells []string
		for j := i; j < len(p.atUserIDs) && j < i+2; j++ {
			cells = append(cells, fmt.Sprintf("**👤 Level %d on call:**\n<at id=%s></at>", j+1, p.atUserIDs[j]))
		}
		payload.Card.Elements = append(payload.Card.Elements, larkColumns(cells...))
	}

	for _, k := range sortedDetails(data.Details) {
		payload.Card.Elements = append(payload.Card.Elements, larkDiv(fmt.Sprintf("**%s :**\n%v", k, data.Details[k])))
	}
	if p.footer != "" {
		payload.Card.Elements = append(payload.Card.Elements, larkElement{Tag: "hr"}, larkDiv(p.footer))
	}

	if p.secret != "" {
		timestamp, sign, err := p.genSign(time.Now())
		if err != nil {
			return xerrors.Errorf("error generating sign: %w", err)
		}
		payload.Timestamp = timestamp
		payload.Sign = sign
	}

	return postJSON(p.client, p.webhookURL, payload, func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return xerrors.Errorf("unexpected HTTP response: %v", resp.Status)
		}
		var r struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return xerrors.Errorf("error decoding response: %w", err)
		}
		if r.Code != 0 {
			return xerrors.Errorf("error response: code %d: %s", r.Code, r.Msg)
		}
		return nil
	})
}

// genSign signs timestamp+"\n"+secret the way Lark expects: the string is the
// HMAC key and the message is empty.
func (p *LarkCustomBot) genSign(now time.Time) (int64, string, error) {
	timestamp := now.Unix()
	stringToSign := fmt.Sprintf("%v", timestamp) + "\n" + p.secret
	h := hmac.New(sha256.New, []byte(stringToSign))
	if _, err := h.Write(nil); err != nil {
		return 0, "", err
	}
	return timestamp, base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func larkDiv(content string) larkElement {
	return larkElement{
		Tag:  "div",
		Text: larkText{Tag: "lark_md", Content: content},
	}
}

func larkColumns(cells ...string) larkElement {
	el := larkElement{
		Tag:             "column_set",
		FlexMode:        "none",
		BackgroundStyle: "default",
	}
	for _, c := range cells {
		el.Columns = append(el.Columns, larkColumn{
			Tag:           "column",
			Width:         "weighted",
			Weight:        1,
			VerticalAlign: "top",
			Elements:      []larkElement{larkDiv(c)},
		})
	}
	return el
}

type larkCard struct {
	Elements []larkElement `json:"elements"`
	Header   larkHeader    `json:"header"`
}

type larkHeader struct {
	Template string   `json:"template"`
	Title    larkText `json:"title"`
}

type larkText struct {
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

type larkColumn struct {
	Tag           string        `json:"tag"`
	Width         string        `json:"width"`
	Weight        int           `json:"weight"`
	VerticalAlign string        `json:"vertical_align"`
	Elements      []larkElement `json:"elements"`
}

type larkElement struct {
	Tag             string       `json:"tag"`
	FlexMode        string       `json:"flex_mode,omitempty"`
	BackgroundStyle string       `json:"background_style,omitempty"`
	Columns         []larkColumn `json:"columns,omitempty"`
	Text            larkText     `json:"text,omitempty"`
	Elements        []larkText   `json:"elements,omitempty"`
}
