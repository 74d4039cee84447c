package services

import "strings"

type QuestionStore interface {
	ListQuestions() ([]*Question, error)
	GetQuestion(id string) (*Question, error)
	InsertQuestion(q *Question) error
	UpdateQuestion(q *Question) error
	DeleteQuestion(id string) error
}

// QuestionService manages the DASS question bank. Mutations are restricted to
// counselors; the caller's role arrives explicitly rather than from ambient
// request state.
type QuestionService struct {
	store QuestionStore
	idGen func() string
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store: store,
		idGen: func() string { return shortID(8) },
	}
}

// List returns the bank in display order.
func (s *QuestionService) List() ([]*Question, error) {
	return s.store.ListQuestions()
}

func (s *QuestionService) Create(callerRole, text string, category Category, order int) (*Question, error) {
	if err := requireCounselor(callerRole); err != nil {
		return nil, err
	}
	if err := validateQuestion(text, category); err != nil {
		return nil, err
	}
	q := &Question{ID: s.idGen(), Text: strings.TrimSpace(text), Category: category, Order: order}
	if err := s.store.InsertQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Update(callerRole, id, text string, category Category, order int) (*Question, error) {
	if err := requireCounselor(callerRole); err != nil {
		return nil, err
	}
	if err := validateQuestion(text, category); err != nil {
		return nil, err
	}
	existing, err := s.store.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewNotFoundError("question not found")
	}
	updated := &Question{ID: id, Text: strings.TrimSpace(text), Category: category, Order: order}
	if err := s.store.UpdateQuestion(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a question from the bank. Historical TestResults are stored
// as computed scores, so deleting a question never touches past results.
func (s *QuestionService) Delete(callerRole, id string) error {
	if err := requireCounselor(callerRole); err != nil {
		return err
	}
	existing, err := s.store.GetQuestion(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("question not found")
	}
	return s.store.DeleteQuestion(id)
}

func requireCounselor(role string) error {
	if role != RoleCounselor {
		return NewForbiddenError("counselor role required")
	}
	return nil
}

func validateQuestion(text string, category Category) error {
	if strings.TrimSpace(text) == "" {
		return NewFieldError("question", "question text required")
	}
	if !category.Valid() {
		return NewFieldError("category", "category must be one of stress, anxiety, depression")
	}
	return nil
}
