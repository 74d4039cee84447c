package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mindcare-id/mindcare/internal/services"
)

// SQLiteStore implements every service store interface over a single sqlite
// database. All queries run per request; nothing is cached.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// --- users ---

func (s *SQLiteStore) InsertUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, pass_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PassHash, u.Role, u.CreatedAt)
	return err
}

func (s *SQLiteStore) GetUser(id string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, name, email, pass_hash, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, name, email, pass_hash, role, created_at FROM users WHERE email = lower(?)`, email)
	return scanUser(row)
}

func (s *SQLiteStore) ListUsersByRole(role string) ([]*services.User, error) {
	return s.listUsers(`SELECT id, name, email, pass_hash, role, created_at FROM users WHERE role = ? ORDER BY name, id`, role)
}

func (s *SQLiteStore) ListUsersExcludingRole(role string) ([]*services.User, error) {
	return s.listUsers(`SELECT id, name, email, pass_hash, role, created_at FROM users WHERE role != ? ORDER BY name, id`, role)
}

func (s *SQLiteStore) listUsers(query string, args ...any) ([]*services.User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.User{}
	for rows.Next() {
		u := &services.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row) (*services.User, error) {
	u := &services.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// --- questions ---

func (s *SQLiteStore) InsertQuestion(q *services.Question) error {
	_, err := s.db.Exec(`INSERT INTO questions (id, question, category, ord) VALUES (?, ?, ?, ?)`,
		q.ID, q.Text, string(q.Category), q.Order)
	return err
}

func (s *SQLiteStore) GetQuestion(id string) (*services.Question, error) {
	q := &services.Question{}
	err := s.db.QueryRow(`SELECT id, question, category, ord FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.Text, &q.Category, &q.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *SQLiteStore) ListQuestions() ([]*services.Question, error) {
	rows, err := s.db.Query(`SELECT id, question, category, ord FROM questions ORDER BY ord, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Question{}
	for rows.Next() {
		q := &services.Question{}
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Order); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateQuestion(q *services.Question) error {
	_, err := s.db.Exec(`UPDATE questions SET question = ?, category = ?, ord = ? WHERE id = ?`,
		q.Text, string(q.Category), q.Order, q.ID)
	return err
}

func (s *SQLiteStore) DeleteQuestion(id string) error {
	_, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) CountQuestions() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// --- test results ---

func (s *SQLiteStore) InsertTestResult(r *services.TestResult) error {
	_, err := s.db.Exec(`INSERT INTO test_results
        (id, user_id, depression_score, anxiety_score, stress_score, depression_level, anxiety_level, stress_level, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.DepressionScore, r.AnxietyScore, r.StressScore,
		string(r.DepressionLevel), string(r.AnxietyLevel), string(r.StressLevel), r.CreatedAt)
	return err
}

func (s *SQLiteStore) ListTestResultsByUser(userID string) ([]*services.TestResult, error) {
	return s.listResults(`SELECT id, user_id, depression_score, anxiety_score, stress_score,
        depression_level, anxiety_level, stress_level, created_at
        FROM test_results WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (s *SQLiteStore) ListTestResults() ([]*services.TestResult, error) {
	return s.listResults(`SELECT id, user_id, depression_score, anxiety_score, stress_score,
        depression_level, anxiety_level, stress_level, created_at
        FROM test_results ORDER BY created_at, id`)
}

func (s *SQLiteStore) listResults(query string, args ...any) ([]*services.TestResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.TestResult{}
	for rows.Next() {
		r := &services.TestResult{}
		if err := rows.Scan(&r.ID, &r.UserID, &r.DepressionScore, &r.AnxietyScore, &r.StressScore,
			&r.DepressionLevel, &r.AnxietyLevel, &r.StressLevel, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- moods ---

func (s *SQLiteStore) InsertMood(m *services.Mood) error {
	_, err := s.db.Exec(`INSERT INTO moods (id, user_id, emoji, keywords, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Emoji, toNullString(m.Keywords), toNullString(m.Note), m.CreatedAt)
	return err
}

func (s *SQLiteStore) ListMoodsSince(userID string, since time.Time) ([]*services.Mood, error) {
	rows, err := s.db.Query(`SELECT id, user_id, emoji, keywords, note, created_at
        FROM moods WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC, id DESC`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Mood{}
	for rows.Next() {
		m := &services.Mood{}
		var keywords, note sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Emoji, &keywords, &note, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Keywords = keywords.String
		m.Note = note.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- messages ---

func (s *SQLiteStore) InsertMessage(m *services.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, sender_id, receiver_id, body, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Body, boolToInt64(m.IsRead), m.CreatedAt)
	return err
}

// ThreadMarkRead flips every unread message from counterpart to viewer to
// read and returns the full two-way thread, oldest first, in one transaction.
// The flip is monotonic, so concurrent calls from several of the viewer's
// devices cannot corrupt read state.
func (s *SQLiteStore) ThreadMarkRead(viewerID, counterpartID string) ([]*services.Message, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Warn("thread rollback", zap.Error(err))
		}
	}()

	if _, err := tx.Exec(`UPDATE messages SET is_read = 1
        WHERE sender_id = ? AND receiver_id = ? AND is_read = 0`, counterpartID, viewerID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(`SELECT m.id, m.sender_id, m.receiver_id, m.body, m.is_read, m.created_at,
        su.name, ru.name
        FROM messages m
        JOIN users su ON su.id = m.sender_id
        JOIN users ru ON ru.id = m.receiver_id
        WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
        ORDER BY m.created_at, m.id`, viewerID, counterpartID, counterpartID, viewerID)
	if err != nil {
		return nil, err
	}
	out := []*services.Message{}
	for rows.Next() {
		m := &services.Message{}
		var isRead int64
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &isRead, &m.CreatedAt,
			&m.SenderName, &m.ReceiverName); err != nil {
			rows.Close()
			return nil, err
		}
		m.IsRead = isRead != 0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) CountUnread(senderID, receiverID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE sender_id = ? AND receiver_id = ? AND is_read = 0`,
		senderID, receiverID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) LastMessageBetween(a, b string) (*services.Message, error) {
	m := &services.Message{}
	var isRead int64
	err := s.db.QueryRow(`SELECT id, sender_id, receiver_id, body, is_read, created_at FROM messages
        WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
        ORDER BY created_at DESC, id DESC LIMIT 1`, a, b, b, a).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &isRead, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.IsRead = isRead != 0
	return m, nil
}
