package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mindcare-id/mindcare/internal/middleware"
	"github.com/mindcare-id/mindcare/internal/services"
)

// memStore backs the router tests with the same semantics the sqlite store
// provides, including the atomic mark-read inside ThreadMarkRead.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*services.User
	questions []*services.Question
	results   []*services.TestResult
	moods     []*services.Mood
	messages  []*services.Message
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*services.User{}}
}

func (s *memStore) InsertUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *memStore) GetUser(id string) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *memStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListUsersByRole(role string) ([]*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*services.User{}
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) ListUsersExcludingRole(role string) ([]*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*services.User{}
	for _, u := range s.users {
		if u.Role != role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) ListQuestions() ([]*services.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*services.Question(nil), s.questions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *memStore) GetQuestion(id string) (*services.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, q)
	return nil
}

func (s *memStore) UpdateQuestion(q *services.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.questions {
		if existing.ID == q.ID {
			s.questions[i] = q
			return nil
		}
	}
	return nil
}

func (s *memStore) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) InsertTestResult(r *services.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *memStore) ListTestResultsByUser(userID string) ([]*services.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*services.TestResult{}
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListTestResults() ([]*services.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*services.TestResult(nil), s.results...), nil
}

func (s *memStore) InsertMood(m *services.Mood) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods = append(s.moods, m)
	return nil
}

func (s *memStore) ListMoodsSince(userID string, since time.Time) ([]*services.Mood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*services.Mood{}
	for _, m := range s.moods {
		if m.UserID == userID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) InsertMessage(m *services.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *memStore) ThreadMarkRead(viewerID, counterpartID string) ([]*services.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*services.Message{}
	for _, m := range s.messages {
		if m.SenderID == counterpartID && m.ReceiverID == viewerID && !m.IsRead {
			m.IsRead = true
		}
		if (m.SenderID == viewerID && m.ReceiverID == counterpartID) ||
			(m.SenderID == counterpartID && m.ReceiverID == viewerID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) CountUnread(senderID, receiverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *memStore) LastMessageBetween(a, b string) (*services.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *services.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			if last == nil || !m.CreatedAt.Before(last.CreatedAt) {
				last = m
			}
		}
	}
	return last, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := newMemStore()
	router := NewRouter(
		services.NewAuthService(store, middleware.SignToken, 0),
		services.NewAssessmentService(store),
		services.NewQuestionService(store),
		services.NewChatService(store),
		services.NewMoodService(store),
		services.NewDashboardService(store),
		zap.NewNop(),
	)
	mux := http.NewServeMux()
	router.Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, base, name, email, role string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/register", "", map[string]string{
		"name": name, "email": email, "password": "rahasia123", "role": role,
	}, &out)
	if status != http.StatusCreated || out.Token == "" {
		t.Fatalf("register %s: status=%d token=%q", email, status, out.Token)
	}
	return out.Token
}

func TestFullJourney(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	counselor := register(t, base, "Bu Rina", "rina@kampus.ac.id", "counselor")
	student := register(t, base, "Dewi", "dewi@kampus.ac.id", "student")

	// counselor builds a minimal question bank
	questionIDs := map[string]string{}
	for i, c := range []string{"stress", "anxiety", "depression"} {
		var out struct {
			Data services.Question `json:"data"`
		}
		status := doJSON(t, http.MethodPost, base+"/api/questions", counselor, map[string]any{
			"question": "item " + c, "category": c, "order": i + 1,
		}, &out)
		if status != http.StatusCreated {
			t.Fatalf("create %s question: status=%d", c, status)
		}
		questionIDs[c] = out.Data.ID
	}

	// students cannot manage the bank
	status := doJSON(t, http.MethodPost, base+"/api/questions", student, map[string]any{
		"question": "x", "category": "stress", "order": 9,
	}, nil)
	if status != http.StatusForbidden {
		t.Fatalf("student question create: status=%d, want 403", status)
	}

	var list struct {
		Data []services.Question `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/questions", student, nil, &list); status != http.StatusOK {
		t.Fatalf("list questions: status=%d", status)
	}
	if len(list.Data) != 3 || list.Data[0].Category != services.CategoryStress {
		t.Fatalf("question list = %+v", list.Data)
	}

	// submit an assessment
	var submitted struct {
		Data services.TestResult `json:"data"`
	}
	status = doJSON(t, http.MethodPost, base+"/api/submit-test", student, map[string]any{
		"answers": []map[string]any{
			{"question_id": questionIDs["stress"], "value": 3},
			{"question_id": questionIDs["anxiety"], "value": 2},
			{"question_id": questionIDs["depression"], "value": 1},
		},
	}, &submitted)
	if status != http.StatusCreated {
		t.Fatalf("submit-test: status=%d", status)
	}
	if submitted.Data.StressScore != 6 || submitted.Data.AnxietyScore != 4 || submitted.Data.DepressionScore != 2 {
		t.Fatalf("scores = %+v", submitted.Data)
	}
	if submitted.Data.StressLevel != services.SeverityNormal {
		t.Fatalf("stress level = %s", submitted.Data.StressLevel)
	}

	// out-of-range value is rejected at the validation boundary
	status = doJSON(t, http.MethodPost, base+"/api/submit-test", student, map[string]any{
		"answers": []map[string]any{{"question_id": questionIDs["stress"], "value": 5}},
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-range submit: status=%d, want 422", status)
	}

	var history struct {
		Data []services.TestResult `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/history", student, nil, &history); status != http.StatusOK {
		t.Fatalf("history: status=%d", status)
	}
	if len(history.Data) != 1 {
		t.Fatalf("history length = %d, want 1", len(history.Data))
	}

	// unauthenticated access is rejected
	if status := doJSON(t, http.MethodGet, base+"/api/history", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated history: status=%d, want 401", status)
	}
}

// Results carry their scores and levels, not question references, so removing
// a question from the bank must leave already-recorded history untouched.
func TestHistorySurvivesQuestionDeletion(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	counselor := register(t, base, "Bu Rina", "rina@kampus.ac.id", "counselor")
	student := register(t, base, "Dewi", "dewi@kampus.ac.id", "student")

	var created struct {
		Data services.Question `json:"data"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/questions", counselor, map[string]any{
		"question": "I found it hard to wind down", "category": "stress", "order": 1,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create question: status=%d", status)
	}

	var submitted struct {
		Data services.TestResult `json:"data"`
	}
	status = doJSON(t, http.MethodPost, base+"/api/submit-test", student, map[string]any{
		"answers": []map[string]any{{"question_id": created.Data.ID, "value": 3}},
	}, &submitted)
	if status != http.StatusCreated {
		t.Fatalf("submit-test: status=%d", status)
	}

	status = doJSON(t, http.MethodDelete, base+"/api/questions/"+created.Data.ID, counselor, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("delete question: status=%d", status)
	}

	var history struct {
		Data []services.TestResult `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/history", student, nil, &history); status != http.StatusOK {
		t.Fatalf("history after deletion: status=%d", status)
	}
	if len(history.Data) != 1 {
		t.Fatalf("history length = %d, want 1", len(history.Data))
	}
	got := history.Data[0]
	if got.ID != submitted.Data.ID || got.StressScore != 6 || got.StressLevel != services.SeverityNormal {
		t.Fatalf("result after deletion = %+v", got)
	}
}

func TestChatJourney(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	counselor := register(t, base, "Bu Rina", "rina@kampus.ac.id", "counselor")
	student := register(t, base, "Dewi", "dewi@kampus.ac.id", "student")

	// the student finds the counselor in their contact list
	var contacts struct {
		Data []services.Contact `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/contacts", student, nil, &contacts); status != http.StatusOK {
		t.Fatalf("contacts: status=%d", status)
	}
	if len(contacts.Data) != 1 || contacts.Data[0].Role != services.RoleCounselor {
		t.Fatalf("student contacts = %+v", contacts.Data)
	}
	counselorID := contacts.Data[0].ID

	var sent struct {
		Data services.Message `json:"data"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/messages", student, map[string]string{
		"receiver_id": counselorID, "message": "selamat pagi bu",
	}, &sent)
	if status != http.StatusCreated {
		t.Fatalf("send message: status=%d", status)
	}
	if sent.Data.IsRead {
		t.Fatal("sent message not in unread state")
	}
	studentID := sent.Data.SenderID

	// counselor sees one unread from the student
	if status := doJSON(t, http.MethodGet, base+"/api/contacts", counselor, nil, &contacts); status != http.StatusOK {
		t.Fatalf("counselor contacts: status=%d", status)
	}
	if len(contacts.Data) != 1 || contacts.Data[0].UnreadCount != 1 {
		t.Fatalf("counselor contacts = %+v", contacts.Data)
	}
	if contacts.Data[0].LastMessage != "selamat pagi bu" {
		t.Fatalf("last message = %q", contacts.Data[0].LastMessage)
	}

	// opening the thread marks it read
	var thread struct {
		Data []services.Message `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/messages/"+studentID, counselor, nil, &thread); status != http.StatusOK {
		t.Fatalf("thread: status=%d", status)
	}
	if len(thread.Data) != 1 || !thread.Data[0].IsRead {
		t.Fatalf("thread after open = %+v", thread.Data)
	}

	if status := doJSON(t, http.MethodGet, base+"/api/contacts", counselor, nil, &contacts); status != http.StatusOK {
		t.Fatalf("contacts after read: status=%d", status)
	}
	if contacts.Data[0].UnreadCount != 0 {
		t.Fatalf("unread after read = %d, want 0", contacts.Data[0].UnreadCount)
	}

	// empty message body is rejected
	status = doJSON(t, http.MethodPost, base+"/api/messages", student, map[string]string{
		"receiver_id": counselorID, "message": "",
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("empty message: status=%d, want 422", status)
	}
}

func TestCounselorEndpointsRoleGated(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	counselor := register(t, base, "Bu Rina", "rina@kampus.ac.id", "counselor")
	student := register(t, base, "Dewi", "dewi@kampus.ac.id", "student")

	if status := doJSON(t, http.MethodGet, base+"/api/counselor/stats", student, nil, nil); status != http.StatusForbidden {
		t.Fatalf("student stats: status=%d, want 403", status)
	}

	var stats struct {
		Stats services.DashboardStats `json:"stats"`
		Charts struct {
			StressDistribution map[string]int        `json:"stress_distribution"`
			WeeklyTrend        []services.TrendPoint `json:"weekly_trend"`
		} `json:"charts"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/counselor/stats", counselor, nil, &stats); status != http.StatusOK {
		t.Fatalf("counselor stats: status=%d", status)
	}
	if stats.Stats.TotalUsers != 1 {
		t.Fatalf("total users = %d, want 1 student", stats.Stats.TotalUsers)
	}
	if len(stats.Charts.WeeklyTrend) != 7 {
		t.Fatalf("weekly trend length = %d, want 7", len(stats.Charts.WeeklyTrend))
	}

	var users struct {
		Data []services.UserOverview `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/counselor/users", counselor, nil, &users); status != http.StatusOK {
		t.Fatalf("counselor users: status=%d", status)
	}
	if len(users.Data) != 1 || users.Data[0].Status != services.StatusNotTested {
		t.Fatalf("user list = %+v", users.Data)
	}
}

func TestMoodEndpoints(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL
	student := register(t, base, "Dewi", "dewi@kampus.ac.id", "student")

	var created struct {
		Data services.Mood `json:"data"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/moods", student, map[string]string{
		"emoji": "anxious", "keywords": "ujian", "note": "besok presentasi",
	}, &created)
	if status != http.StatusCreated || created.Data.Emoji != "anxious" {
		t.Fatalf("submit mood: status=%d data=%+v", status, created.Data)
	}

	status = doJSON(t, http.MethodPost, base+"/api/moods", student, map[string]string{"emoji": "meh"}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid emoji: status=%d, want 422", status)
	}

	var moods struct {
		Data []services.Mood `json:"data"`
	}
	if status := doJSON(t, http.MethodGet, base+"/api/moods?days=7", student, nil, &moods); status != http.StatusOK {
		t.Fatalf("list moods: status=%d", status)
	}
	if len(moods.Data) != 1 {
		t.Fatalf("moods = %d, want 1", len(moods.Data))
	}
}
