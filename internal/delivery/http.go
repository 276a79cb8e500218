package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/retirement-leads/internal/usecase"
)

// DefaultClient is shared by the HTTP sinks. Per-attempt deadlines come from
// the fan-out context; the client timeout is only a backstop.
var DefaultClient = &http.Client{Timeout: 30 * time.Second}

// PostJSON sends payload to url and treats any non-2xx status as a failure.
// Errors are *usecase.DeliveryError carrying the sink name and status.
func PostJSON(ctx context.Context, client *http.Client, sink, url string, payload any) error {
	if client == nil {
		client = DefaultClient
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &usecase.DeliveryError{Sink: sink, Err: eris.Wrap(err, "marshal payload")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &usecase.DeliveryError{Sink: sink, Err: eris.Wrap(err, "create request")}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &usecase.DeliveryError{Sink: sink, Err: eris.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &usecase.DeliveryError{
			Sink:       sink,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}
	return nil
}
