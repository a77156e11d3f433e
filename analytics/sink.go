package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "github.com/tumaini/giving-portal-go/models"
)

// Sink delivers one enriched event to the collector.
type Sink interface {
	Send(ctx context.Context, ev models.AnalyticsEvent) error
}

// HTTPSink posts events as JSON to a collector endpoint.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSink) Send(ctx context.Context, ev models.AnalyticsEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned %s", resp.Status)
	}
	return nil
}
