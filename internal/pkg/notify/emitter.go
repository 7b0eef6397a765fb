package notify

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/app/repository"
)

// Message is the payload handed to the emitter by domain transitions.
type Message struct {
	Type       string
	Title      string
	Body       string
	Priority   string
	ActionType string
	ActionData string
}

// Emitter delivers user notifications fire-and-forget. Implementations must
// swallow and log delivery failures; a failed notification never aborts the
// domain transition that triggered it.
type Emitter interface {
	Send(userID uint, msg Message)
}

// ActionViewSignal builds the action payload pointing a client at a signal.
func ActionViewSignal(signalUUID string) (actionType, actionData string) {
	data, err := json.Marshal(map[string]string{"signal_id": signalUUID})
	if err != nil {
		return models.NOTIFICATION_ACTION_NONE, "{}"
	}
	return models.NOTIFICATION_ACTION_VIEW_SIGNAL, string(data)
}

type dbEmitter struct {
	repo repository.NotificationRepository
}

// NewDBEmitter creates an emitter that persists notifications directly.
func NewDBEmitter(repo repository.NotificationRepository) Emitter {
	return &dbEmitter{repo: repo}
}

func (e *dbEmitter) Send(userID uint, msg Message) {
	n := &models.Notification{
		UserID:     userID,
		Type:       msg.Type,
		Title:      msg.Title,
		Message:    msg.Body,
		Priority:   msg.Priority,
		ActionType: msg.ActionType,
		ActionData: msg.ActionData,
	}
	if err := e.repo.Create(n); err != nil {
		log.Errorf("[Notify] Failed to deliver notification to user %d (%s): %v", userID, msg.Type, err)
	}
}
