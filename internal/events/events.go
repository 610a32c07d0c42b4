// Package events announces recorded attempts over watermill, on Kafka or an
// in-process channel.
package events

import (
	"time"

	"github.com/google/uuid"

	"quizmaker-service/internal/domain"
)

const (
	TypeAttemptRecorded = "attempt.recorded"
	Source              = "quizmaker-service"
	Version             = "1.0"
	DefaultTopic        = "quiz.attempts"
)

// AttemptRecordedEvent is the payload published after a score is saved.
type AttemptRecordedEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Respondent string    `json:"respondent"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recordedAt"`
}

func NewAttemptRecordedEvent(attempt domain.Attempt) AttemptRecordedEvent {
	return AttemptRecordedEvent{
		ID:         uuid.NewString(),
		Type:       TypeAttemptRecorded,
		Source:     Source,
		Version:    Version,
		Timestamp:  time.Now().UTC(),
		Respondent: attempt.Respondent,
		Score:      attempt.Score,
		RecordedAt: attempt.RecordedAt,
	}
}
