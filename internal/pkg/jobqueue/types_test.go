package jobqueue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/notification"
)

func TestJobTypes(t *testing.T) {
	assert.Equal(t, "send_sms", string(JobTypeSendSMS))
	assert.Equal(t, "send_push", string(JobTypeSendPush))
}

func TestJob_StatusTransitions(t *testing.T) {
	job := &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}
	assert.True(t, job.IsRetryable())

	job.RetryCount = 3
	assert.False(t, job.IsRetryable())

	before := time.Now()
	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)
	assert.False(t, job.UpdatedAt.Before(before))

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)

	job.MarkAsFailed("gateway down")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "gateway down", job.ErrorMsg)
	assert.Equal(t, 4, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)
}

func TestNotificationJobsAreNeverRetried(t *testing.T) {
	job := &Job{MaxRetries: DefaultMaxRetries}
	job.MarkAsFailed("boom")
	assert.False(t, job.IsRetryable())
}

// Payloads travel through Redis as JSON, so the map form has to survive encoding.
func TestSendPushPayload_SurvivesJSON(t *testing.T) {
	in := SendPushJobPayload{
		TenantID: 9,
		Target:   notification.PushTarget{DeviceID: "device_1"},
		Message: notification.PushMessage{
			Title: "Lembrete",
			Body:  "amanhã às 10:00",
			Data:  map[string]string{"appointment_id": "5"},
		},
	}
	raw, err := json.Marshal(Job{Type: JobTypeSendPush, Payload: in.ToMap()})
	require.NoError(t, err)

	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	out, err := SendPushJobPayloadFromMap(job.Payload)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestSendSMSPayloadFromMap(t *testing.T) {
	out, err := SendSMSJobPayloadFromMap(map[string]interface{}{
		"tenant_id": float64(3),
		"phone":     "11999990000",
		"message":   "oi",
	})
	require.NoError(t, err)
	assert.Equal(t, SendSMSJobPayload{TenantID: 3, Phone: "11999990000", Message: "oi"}, *out)
}
