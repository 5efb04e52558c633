package models

import "time"

// Notification event types.
const (
	NotificationLessonCancelled      = "lesson.cancelled"
	NotificationOccurrenceCancelled  = "lesson.occurrence_cancelled"
	NotificationGroupLessonScheduled = "group_lesson.scheduled"
)

// Notification is a best-effort message to a user about a lesson.
type Notification struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	RelatedEntity string    `json:"related_entity"`
	RelatedID     string    `json:"related_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RelatedEntity points a notification at the lesson it concerns.
// Event carries the notification type.
type RelatedEntity struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Event string `json:"event"`
}
