package notification

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pushusecases "github.com/veridian-id/veridian/internal/application/pushflow/usecases"
	"github.com/veridian-id/veridian/internal/domain/otp"
	"github.com/veridian-id/veridian/internal/shared/config"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

func discardLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func TestHTTPSMSSender_SendCode(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSMSSender(config.SMSConfig{
		ProviderURL: srv.URL,
		APIKey:      "test-key",
		Sender:      "Veridian",
	}, discardLogger())

	err := sender.SendCode(context.Background(), "+15551234567", "123456", otp.PurposeRecoverySMS)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "+15551234567", gotBody["to"])
	assert.Equal(t, "Veridian", gotBody["from"])
	assert.Contains(t, gotBody["body"], "123456")
}

func TestHTTPSMSSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewHTTPSMSSender(config.SMSConfig{ProviderURL: srv.URL}, discardLogger())

	err := sender.SendCode(context.Background(), "+15551234567", "123456", otp.PurposeAuthentication)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestHTTPPushSender_SendAuthNotice(t *testing.T) {
	var gotBody pushEnvelope

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(discardLogger())

	expiresAt := time.Date(2025, 6, 1, 12, 1, 30, 0, time.UTC)
	err := sender.SendAuthNotice(context.Background(),
		pushusecases.PushSubscription{Endpoint: srv.URL},
		pushusecases.AuthNotice{
			RequestID: "pa_abc",
			Challenge: "challenge-token",
			Purpose:   "SIGN_IN",
			IP:        "203.0.113.9",
			ExpiresAt: expiresAt,
		})
	require.NoError(t, err)

	assert.Equal(t, "pa_abc", gotBody.RequestID)
	assert.Equal(t, "challenge-token", gotBody.Challenge)
	assert.Equal(t, "SIGN_IN", gotBody.Purpose)
	assert.Equal(t, "2025-06-01T12:01:30Z", gotBody.ExpiresAt)
}

func TestHTTPPushSender_EndpointGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	sender := NewHTTPPushSender(discardLogger())

	err := sender.SendAuthNotice(context.Background(),
		pushusecases.PushSubscription{Endpoint: srv.URL},
		pushusecases.AuthNotice{RequestID: "pa_gone", ExpiresAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestCodeCopy_PerPurpose(t *testing.T) {
	subject, _ := codeCopy(otp.PurposeRecoveryEmail)
	assert.Equal(t, "Your account recovery code", subject)

	subject, _ = codeCopy(otp.PurposeAuthentication)
	assert.Equal(t, "Your sign-in code", subject)
}
