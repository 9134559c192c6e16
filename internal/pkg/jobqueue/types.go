package jobqueue

import (
	"encoding/json"
	"time"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/notification"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendSMS  JobType = "send_sms"
	JobTypeSendPush JobType = "send_push"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendSMSJobPayload contains the payload for SMS delivery jobs
type SendSMSJobPayload struct {
	TenantID uint   `json:"tenant_id"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

// ToMap converts the payload to a map for storage
func (p SendSMSJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id": p.TenantID,
		"phone":     p.Phone,
		"message":   p.Message,
	}
}

// SendSMSJobPayloadFromMap creates a payload from a map
func SendSMSJobPayloadFromMap(data map[string]interface{}) (*SendSMSJobPayload, error) {
	var payload SendSMSJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// SendPushJobPayload contains the payload for push delivery jobs. Tokens are
// resolved when the job runs, so tokens registered in between are included.
type SendPushJobPayload struct {
	TenantID uint                     `json:"tenant_id"`
	Target   notification.PushTarget  `json:"target"`
	Message  notification.PushMessage `json:"message"`
}

// ToMap converts the payload to a map for storage
func (p SendPushJobPayload) ToMap() map[string]interface{} {
	data := map[string]string{}
	for k, v := range p.Message.Data {
		data[k] = v
	}
	return map[string]interface{}{
		"tenant_id": p.TenantID,
		"target": map[string]interface{}{
			"owners":    p.Target.Owners,
			"device_id": p.Target.DeviceID,
		},
		"message": map[string]interface{}{
			"title": p.Message.Title,
			"body":  p.Message.Body,
			"data":  data,
		},
	}
}

// SendPushJobPayloadFromMap creates a payload from a map
func SendPushJobPayloadFromMap(data map[string]interface{}) (*SendPushJobPayload, error) {
	var payload SendPushJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

func decodePayload(data map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, out)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
