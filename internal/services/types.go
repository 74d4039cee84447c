package services

import "time"

// Category is one of the three DASS-21 subscales. The set is closed: question
// management rejects anything else at the validation boundary.
type Category string

const (
	CategoryDepression Category = "depression"
	CategoryAnxiety    Category = "anxiety"
	CategoryStress     Category = "stress"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDepression, CategoryAnxiety, CategoryStress:
		return true
	}
	return false
}

// Severity labels follow the original Indonesian deployment: Ringan=mild,
// Sedang=moderate, Parah=severe, Sangat Parah=extremely severe.
type Severity string

const (
	SeverityNormal   Severity = "Normal"
	SeverityMild     Severity = "Ringan"
	SeverityModerate Severity = "Sedang"
	SeveritySevere   Severity = "Parah"
	SeverityExtreme  Severity = "Sangat Parah"
	SeverityUnknown  Severity = "Unknown"
)

// Severities lists the five clinical bands in ascending order.
var Severities = []Severity{SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere, SeverityExtreme}

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"question"`
	Category Category `json:"category"`
	Order    int      `json:"order"`
}

// Answer is transient submission input; it is never stored on its own.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      int    `json:"value"`
}

// TestResult is append-only: there is no update or delete path, and levels are
// always derived from the scores at creation time.
type TestResult struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	DepressionScore int       `json:"depression_score"`
	AnxietyScore    int       `json:"anxiety_score"`
	StressScore     int       `json:"stress_score"`
	DepressionLevel Severity  `json:"depression_level"`
	AnxietyLevel    Severity  `json:"anxiety_level"`
	StressLevel     Severity  `json:"stress_level"`
	CreatedAt       time.Time `json:"created_at"`
}

type Mood struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Keywords  string    `json:"keywords,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message state is two-valued: IsRead false (unread) or true (read). The only
// transition is unread -> read, performed in bulk when the receiver opens the
// thread; nothing ever flips a message back.
type Message struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	ReceiverID   string    `json:"receiver_id"`
	Body         string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
	SenderName   string    `json:"sender_name,omitempty"`
	ReceiverName string    `json:"receiver_name,omitempty"`
}

// Contact is a derived view, recomputed from the message table on every call.
type Contact struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	UnreadCount     int        `json:"unread_count"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}
