package services

import (
	"strings"
	"time"
)

type MoodStore interface {
	InsertMood(m *Mood) error
	ListMoodsSince(userID string, since time.Time) ([]*Mood, error)
}

var moodEmojis = map[string]bool{
	"happy":   true,
	"neutral": true,
	"sad":     true,
	"anxious": true,
	"angry":   true,
}

const (
	defaultMoodDays = 7
	maxMoodDays     = 90
)

// MoodService records daily mood check-ins. Entries are append-only and more
// than one per day is allowed.
type MoodService struct {
	store MoodStore
	now   func() time.Time
	idGen func() string
}

func NewMoodService(store MoodStore) *MoodService {
	return &MoodService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

func (s *MoodService) Submit(userID, emoji, keywords, note string) (*Mood, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	emoji = strings.TrimSpace(strings.ToLower(emoji))
	if !moodEmojis[emoji] {
		return nil, NewFieldError("emoji", "emoji must be one of happy, neutral, sad, anxious, angry")
	}
	m := &Mood{
		ID:        s.idGen(),
		UserID:    userID,
		Emoji:     emoji,
		Keywords:  strings.TrimSpace(keywords),
		Note:      strings.TrimSpace(note),
		CreatedAt: s.now(),
	}
	if err := s.store.InsertMood(m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns the caller's mood entries from the last N days, newest first.
func (s *MoodService) List(userID string, days int) ([]*Mood, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	if days <= 0 {
		days = defaultMoodDays
	}
	if days > maxMoodDays {
		days = maxMoodDays
	}
	since := s.now().AddDate(0, 0, -days)
	return s.store.ListMoodsSince(userID, since)
}
