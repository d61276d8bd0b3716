package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

var (
	sendAttempts = 5
	sendDelay    = time.Second
	sendTimeout  = 15 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: sendTimeout}
}

// postJSON marshals payload and POSTs it to url, retrying up to sendAttempts
// times. handle inspects every response and decides whether the attempt succeeded.
func postJSON(client *http.Client, url string, payload interface{}, handle func(resp *http.Response) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return xerrors.Errorf("error marshaling JSON: %w", err)
	}

	iter, _, err := lo.AttemptWithDelay(sendAttempts, sendDelay,
		func(index int, _ time.Duration) error {
			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return xerrors.Errorf("error creating request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				time.Sleep(time.Duration(2*index) * sendDelay) // Exponential backoff
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			return handle(resp)
		})
	if err != nil {
		return fmt.Errorf("after %d retries,last error: %w", iter, err)
	}
	return nil
}

func readBody(resp *http.Response) string {
	bd, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	return string(bd)
}

// sortedDetails returns the detail keys in a stable order.
func sortedDetails(details map[string]interface{}) []string {
	keys := lo.Keys(details)
	sort.Strings(keys)
	return keys
}
