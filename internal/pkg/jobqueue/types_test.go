package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRetryLifecycle(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: DefaultMaxRetries}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("boom")
	job.MarkAsFailed("boom")
	assert.Equal(t, 3, job.RetryCount)
	assert.False(t, job.IsRetryable(), "retries are capped at MaxRetries")

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}

func TestNotificationJobPayloadRoundTrip(t *testing.T) {
	payload := NotificationJobPayload{
		UserID:     42,
		Type:       "price_alert",
		Title:      "Price Alert: AAPL",
		Message:    "AAPL crossed above your target",
		Priority:   "high",
		ActionType: "view_signal",
		ActionData: `{"signal_id":"abc"}`,
	}

	restored, err := NotificationJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *restored)
}
