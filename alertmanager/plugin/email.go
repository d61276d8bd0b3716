package plugin

import (
	"bytes"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/deps/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email is the built-in channel that is always registered under EmailChannel.
type Email struct {
	cfg      config.MailConfig
	sendMail sendMailFunc
}

func NewEmail(cfg config.MailConfig) *Email {
	return &Email{
		cfg:      cfg,
		sendMail: smtp.SendMail,
	}
}

func (e *Email) SendAlert(data *AlertPayload) error {
	if e.cfg.Host == "" {
		return xerrors.Errorf("%s is not set, cannot send email alert", config.KeyMailHost)
	}
	if e.cfg.Sender == "" || len(e.cfg.Recipients) == 0 {
		return xerrors.Errorf("email alert needs %s and %s", config.KeyMailSender, config.KeyMailRecipients)
	}

	var auth smtp.Auth
	if e.cfg.User != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Host)
	}

	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	if err := e.sendMail(addr, auth, e.cfg.Sender, e.cfg.Recipients, e.message(data)); err != nil {
		return xerrors.Errorf("sending email alert via %s: %w", addr, err)
	}
	return nil
}

func (e *Email) message(data *AlertPayload) []byte {
	subject := headerValue(fmt.Sprintf("%s %s: %s", e.cfg.SubjectPrefix, strings.ToUpper(data.Severity), data.Summary))

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(e.cfg.Sender))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(e.cfg.Recipients, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", data.Time.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "Source: %s\r\n", data.Source)
	fmt.Fprintf(&b, "Severity: %s\r\n\r\n", data.Severity)
	for _, k := range sortedDetails(data.Details) {
		fmt.Fprintf(&b, "%s:\r\n%v\r\n\r\n", k, data.Details[k])
	}
	return b.Bytes()
}

// headerValue folds a value onto one line so it cannot start a new header.
func headerValue(v string) string {
	return strings.TrimSpace(strings.Join(strings.FieldsFunc(v, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " "))
}
