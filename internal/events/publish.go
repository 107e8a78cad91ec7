package events

import (
	"errors"
	"log/slog"
	"time"
)

// DefaultRetries is the attempt count services use for live updates.
const DefaultRetries = 3

// ErrPublisherClosed is returned by publishers that will never accept another
// event. PublishWithRetry gives up on it immediately.
var ErrPublisherClosed = errors.New("publisher closed")

const publishBaseDelay = 50 * time.Millisecond

// PublishWithRetry publishes event, retrying transient failures with
// exponential backoff (50ms, 100ms, ...) up to attempts tries in total. It
// returns the last error. A nil publisher drops the event.
func PublishWithRetry(p Publisher, event Event, attempts int) error {
	if p == nil {
		return nil
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = p.Publish(event); err == nil {
			if attempt > 1 {
				slog.Debug("event published after retry",
					"attempt", attempt, "event_type", event.Type, "board_id", event.BoardID)
			}
			return nil
		}
		if errors.Is(err, ErrPublisherClosed) || attempt == attempts {
			break
		}
		delay := publishBaseDelay << (attempt - 1)
		slog.Debug("event publish failed, retrying",
			"attempt", attempt, "retry_delay", delay, "event_type", event.Type, "error", err)
		time.Sleep(delay)
	}

	slog.Warn("event dropped",
		"event_type", event.Type,
		"board_id", event.BoardID,
		"sequence_id", event.SequenceID,
		"error", err)
	return err
}
