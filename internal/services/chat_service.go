package services

import (
	"sort"
	"strings"
	"time"
)

// ChatStore abstracts message persistence. ThreadMarkRead must perform the
// unread->read flip and the thread read in one transaction so concurrent
// pollers can never observe a half-applied transition.
type ChatStore interface {
	GetUser(id string) (*User, error)
	ListUsersByRole(role string) ([]*User, error)
	ListUsersExcludingRole(role string) ([]*User, error)
	InsertMessage(m *Message) error
	ThreadMarkRead(viewerID, counterpartID string) ([]*Message, error)
	CountUnread(senderID, receiverID string) (int, error)
	LastMessageBetween(a, b string) (*Message, error)
}

// ChatService implements the polling-based delivery model: storage success is
// delivery, and "new message" detection happens client-side by re-fetching.
type ChatService struct {
	store ChatStore
	now   func() time.Time
	idGen func() string
}

func NewChatService(store ChatStore) *ChatService {
	return &ChatService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Send creates a message in the unread state and returns it with both party
// names attached for immediate rendering.
func (s *ChatService) Send(senderID, receiverID, text string) (*Message, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, NewFieldError("message", "message required")
	}
	receiver, err := s.store.GetUser(receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, NewFieldError("receiver_id", "unknown receiver")
	}
	sender, err := s.store.GetUser(senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, NewUnauthorizedError("unknown sender")
	}
	m := &Message{
		ID:           s.idGen(),
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Body:         text,
		IsRead:       false,
		CreatedAt:    s.now(),
		SenderName:   sender.Name,
		ReceiverName: receiver.Name,
	}
	if err := s.store.InsertMessage(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Thread returns the full two-way history with counterpartID, oldest first.
// As a side effect every unread message from the counterpart to the viewer is
// marked read before the list is returned. The transition is monotonic, so
// repeated calls from any number of the viewer's devices are idempotent.
func (s *ChatService) Thread(viewerID, counterpartID string) ([]*Message, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	return s.store.ThreadMarkRead(viewerID, counterpartID)
}

// Contacts lists the viewer's counterpart set annotated with unread counts and
// last-message metadata. Students see counselors; counselors see every
// non-counselor account, whether or not a conversation exists yet. The view is
// recomputed from the message table on every call, trading work for freshness.
func (s *ChatService) Contacts(viewerID, viewerRole string) ([]*Contact, error) {
	if strings.TrimSpace(viewerID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	var (
		users []*User
		err   error
	)
	if viewerRole == RoleCounselor {
		users, err = s.store.ListUsersExcludingRole(RoleCounselor)
	} else {
		users, err = s.store.ListUsersByRole(RoleCounselor)
	}
	if err != nil {
		return nil, err
	}

	contacts := make([]*Contact, 0, len(users))
	for _, u := range users {
		unread, err := s.store.CountUnread(u.ID, viewerID)
		if err != nil {
			return nil, err
		}
		c := &Contact{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, UnreadCount: unread}
		last, err := s.store.LastMessageBetween(viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			t := last.CreatedAt
			c.LastMessage = last.Body
			c.LastMessageTime = &t
		}
		contacts = append(contacts, c)
	}

	// Most recent conversation first; contacts without any messages sink to
	// the bottom in stable name order.
	sort.SliceStable(contacts, func(i, j int) bool {
		ti, tj := contacts[i].LastMessageTime, contacts[j].LastMessageTime
		switch {
		case ti == nil && tj == nil:
			return contacts[i].Name < contacts[j].Name
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return contacts, nil
}
