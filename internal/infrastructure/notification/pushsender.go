package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pushusecases "github.com/veridian-id/veridian/internal/application/pushflow/usecases"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

// HTTPPushSender posts authentication notices to a device's push
// subscription endpoint.
type HTTPPushSender struct {
	client *http.Client
	logger logger.Interface
}

func NewHTTPPushSender(log logger.Interface) *HTTPPushSender {
	return &HTTPPushSender{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}
}

type pushEnvelope struct {
	RequestID string `json:"request_id"`
	Challenge string `json:"challenge"`
	Purpose   string `json:"purpose"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Location  string `json:"location,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

func (s *HTTPPushSender) SendAuthNotice(ctx context.Context, sub pushusecases.PushSubscription, notice pushusecases.AuthNotice) error {
	payload, err := json.Marshal(pushEnvelope{
		RequestID: notice.RequestID,
		Challenge: notice.Challenge,
		Purpose:   notice.Purpose,
		IP:        notice.IP,
		UserAgent: notice.UserAgent,
		Location:  notice.Location,
		ExpiresAt: notice.ExpiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", "90")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
