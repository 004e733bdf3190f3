package notify

import (
	"time"

	"habit-tracker/internal/services"

	"github.com/google/uuid"
)

// Discard accepts reminders and drops them. One-shot commands use it when
// nothing stays alive to deliver.
type Discard struct{}

var _ services.Notifier = Discard{}

func (Discard) Schedule(time.Time, services.ReminderPayload) (string, error) {
	return uuid.NewString(), nil
}

func (Discard) Cancel(string) error { return nil }

func (Discard) CancelAll() error { return nil }
