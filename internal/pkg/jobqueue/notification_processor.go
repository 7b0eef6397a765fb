package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
)

// processNotificationJob persists one user notification from the queue.
func (q *Queue) processNotificationJob(job *Job) error {
	payload, err := NotificationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("notification payload has no user")
	}

	n := &models.Notification{
		UserID:     payload.UserID,
		Type:       payload.Type,
		Title:      payload.Title,
		Message:    payload.Message,
		Priority:   payload.Priority,
		ActionType: payload.ActionType,
		ActionData: payload.ActionData,
	}
	if err := repository.GetGlobalRepositories().Notification.Create(n); err != nil {
		return fmt.Errorf("failed to store notification for user %d: %w", payload.UserID, err)
	}
	return nil
}

type queueEmitter struct {
	queue *Queue
}

// NewQueueEmitter creates a notification emitter that hands delivery to the
// background queue. Enqueue failures are logged and dropped; callers treat
// notifications as fire-and-forget.
func NewQueueEmitter(queue *Queue) notify.Emitter {
	return &queueEmitter{queue: queue}
}

func (e *queueEmitter) Send(userID uint, msg notify.Message) {
	payload := NotificationJobPayload{
		UserID:     userID,
		Type:       msg.Type,
		Title:      msg.Title,
		Message:    msg.Body,
		Priority:   msg.Priority,
		ActionType: msg.ActionType,
		ActionData: msg.ActionData,
	}
	if _, err := e.queue.EnqueueJob(JobTypeNotification, payload.ToMap()); err != nil {
		log.Errorf("[Notify] Failed to enqueue notification for user %d (%s): %v", userID, msg.Type, err)
	}
}
