package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssessmentStore abstracts persistence operations required by AssessmentService.
type AssessmentStore interface {
	ListQuestions() ([]*Question, error)
	InsertTestResult(r *TestResult) error
	ListTestResultsByUser(userID string) ([]*TestResult, error)
}

// AssessmentService hosts questionnaire submission and history retrieval.
type AssessmentService struct {
	store AssessmentStore
	now   func() time.Time
	idGen func() string
}

func NewAssessmentService(store AssessmentStore) *AssessmentService {
	return &AssessmentService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Submit validates the answer set, computes the three subscale scores and
// levels, and persists exactly one TestResult for userID. Re-submitting the
// same answers creates a new independent record; history is append-only.
func (s *AssessmentService) Submit(userID string, answers []Answer) (*TestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	if len(answers) == 0 {
		return nil, NewFieldError("answers", "answers required")
	}

	all, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	questions := make(map[string]*Question, len(all))
	for _, q := range all {
		questions[q.ID] = q
	}

	// Strict pre-check: out-of-range values and unknown question ids are
	// rejected before any aggregation touches them.
	for _, ans := range answers {
		if ans.Value < 0 || ans.Value > 3 {
			return nil, NewFieldError("value", "answer value must be between 0 and 3")
		}
		if questions[ans.QuestionID] == nil {
			return nil, NewFieldError("question_id", "unknown question id "+ans.QuestionID)
		}
	}

	sums := SumByCategory(answers, questions)
	result := &TestResult{
		ID:              s.idGen(),
		UserID:          userID,
		DepressionScore: ScaleScore(sums.Depression),
		AnxietyScore:    ScaleScore(sums.Anxiety),
		StressScore:     ScaleScore(sums.Stress),
		CreatedAt:       s.now(),
	}
	result.DepressionLevel = Classify(CategoryDepression, result.DepressionScore)
	result.AnxietyLevel = Classify(CategoryAnxiety, result.AnxietyScore)
	result.StressLevel = Classify(CategoryStress, result.StressScore)

	if err := s.store.InsertTestResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

// History returns the caller's results, newest first.
func (s *AssessmentService) History(userID string) ([]*TestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	return s.store.ListTestResultsByUser(userID)
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
