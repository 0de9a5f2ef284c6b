// Package model defines domain entities used by services and repositories.
//
// JSON field names follow the persisted document layout, so documents written by
// older clients decode unchanged.
package model

import "time"

// User represents a registered account. The plaintext password is never stored.
type User struct {
	ID           string `json:"id"`                     // opaque, creation-time-derived
	Username     string `json:"username"`               // unique, case-insensitive
	Email        string `json:"email"`                  //
	PasswordHash string `json:"passwordHash"`           // hex; Argon2id, or legacy SHA-256 when salt is empty
	PasswordSalt string `json:"passwordSalt,omitempty"` // hex per-user salt
}

// Topic is a single learning unit inside a Subject.
type Topic struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Completed        bool   `json:"completed"`
	PrelimsRevisions int    `json:"prelimsRevisions"`
	MainsRevisions   int    `json:"mainsRevisions"`
}

// Subject is a syllabus category owning an ordered list of topics.
type Subject struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Topics []Topic `json:"topics"`
}

// SectionScores holds per-section marks of a mock test.
type SectionScores struct {
	Quant     float64 `json:"quant"`
	Reasoning float64 `json:"reasoning"`
	English   float64 `json:"english"`
	GA        float64 `json:"ga"`
}

// MockTestScore is a recorded practice-exam result.
type MockTestScore struct {
	ID            string        `json:"id"`
	Date          string        `json:"date"`     // YYYY-MM-DD
	Provider      string        `json:"provider"` // free text, e.g. Oliveboard
	TotalMarks    float64       `json:"totalMarks"`
	ObtainedMarks float64       `json:"obtainedMarks"`
	Percentile    float64       `json:"percentile"`
	SectionScores SectionScores `json:"sectionScores"`
}

// ScoreInput is a MockTestScore before an id is assigned.
type ScoreInput struct {
	Date          string
	Provider      string
	TotalMarks    float64
	ObtainedMarks float64
	Percentile    float64
	SectionScores SectionScores
}

// StudyTask is a dated to-do item.
type StudyTask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

// Profile is the per-user document aggregating syllabus, scores and tasks.
type Profile struct {
	UserID         string          `json:"userId"`
	Syllabus       []Subject       `json:"syllabus"`
	Scores         []MockTestScore `json:"scores"`
	Tasks          []StudyTask     `json:"tasks"`
	TargetExamDate string          `json:"targetExamDate,omitempty"`
}

// TopicField names a mutable topic field.
type TopicField string

// Mutable topic fields.
const (
	FieldCompleted        TopicField = "completed"
	FieldPrelimsRevisions TopicField = "prelimsRevisions"
	FieldMainsRevisions   TopicField = "mainsRevisions"
)

// TopicPatch is a partial topic update; nil fields are left untouched.
type TopicPatch struct {
	Completed        *bool
	PrelimsRevisions *int
	MainsRevisions   *int
}

// Role is the author of a chat turn.
type Role string

// Chat roles understood by the tutor endpoint.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatTurn is one message of a tutor transcript.
type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// SubjectProgress is completion of a single subject.
type SubjectProgress struct {
	SubjectID  string `json:"subjectId"`
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// ScorePoint is a compact score used for trend charts.
type ScorePoint struct {
	Date     string  `json:"date"`
	Obtained float64 `json:"obtained"`
	Total    float64 `json:"total"`
}

// Stats aggregates dashboard figures of a profile.
type Stats struct {
	TotalTopics          int               `json:"totalTopics"`
	CompletedTopics      int               `json:"completedTopics"`
	CompletionPercentage int               `json:"completionPercentage"`
	Subjects             []SubjectProgress `json:"subjects"`
	BestScore            float64           `json:"bestScore"`
	PendingTasks         int               `json:"pendingTasks"`
	RecentScores         []ScorePoint      `json:"recentScores"`
	DaysToExam           *int              `json:"daysToExam,omitempty"`
}

// EventType names a profile mutation.
type EventType string

// Published mutation events.
const (
	EventUserRegistered EventType = "auth.user_registered"
	EventTopicUpdated   EventType = "syllabus.topic_updated"
	EventSubjectAdded   EventType = "syllabus.subject_added"
	EventSubjectDeleted EventType = "syllabus.subject_deleted"
	EventTopicAdded     EventType = "syllabus.topic_added"
	EventTopicDeleted   EventType = "syllabus.topic_deleted"
	EventScoreAdded     EventType = "scores.score_added"
	EventScoreDeleted   EventType = "scores.score_deleted"
	EventTaskAdded      EventType = "tasks.task_added"
	EventTaskToggled    EventType = "tasks.task_toggled"
	EventTaskDeleted    EventType = "tasks.task_deleted"
	EventTargetDateSet  EventType = "profile.target_date_set"
)

// Event describes a committed mutation.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"userId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}
