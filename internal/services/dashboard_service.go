package services

import (
	"sort"
	"time"
)

type DashboardStore interface {
	ListUsersByRole(role string) ([]*User, error)
	ListTestResults() ([]*TestResult, error)
}

// StatusNotTested is the sentinel status for students with no results yet.
const StatusNotTested = "Belum Tes"

type DashboardStats struct {
	TotalUsers       int `json:"total_users"`
	AssessmentsToday int `json:"assessments_today"`
	HighRiskUsers    int `json:"high_risk_users"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DashboardSummary struct {
	Stats              DashboardStats   `json:"stats"`
	StressDistribution map[Severity]int `json:"stress_distribution"`
	WeeklyTrend        []TrendPoint     `json:"weekly_trend"`
}

type UserOverview struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	JoinedAt       string `json:"joined_at"`
	LastAssessment string `json:"last_assessment"`
	Status         string `json:"status"`
}

const overviewDateFormat = "02 Jan 2006"

// DashboardService computes counselor-facing rollups. Everything is derived
// fresh from stored results on each call; there is no cache to go stale.
type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Stats builds the dashboard header numbers and both chart datasets.
//
// HighRiskUsers counts users with at least one severe-or-worse result ever,
// while the stress distribution votes each user's latest result only. The two
// metrics intentionally disagree; unifying them is a product decision.
func (s *DashboardService) Stats() (*DashboardSummary, error) {
	students, err := s.store.ListUsersByRole(RoleStudent)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListTestResults()
	if err != nil {
		return nil, err
	}

	now := s.now()
	loc := now.Location()
	dayKey := func(t time.Time) string { return t.In(loc).Format("2006-01-02") }
	today := dayKey(now)

	summary := &DashboardSummary{
		Stats:              DashboardStats{TotalUsers: len(students)},
		StressDistribution: map[Severity]int{},
	}
	for _, level := range Severities {
		summary.StressDistribution[level] = 0
	}

	highRisk := map[string]bool{}
	latest := map[string]*TestResult{}
	countsByDay := map[string]int{}
	for _, r := range results {
		day := dayKey(r.CreatedAt)
		countsByDay[day]++
		if day == today {
			summary.Stats.AssessmentsToday++
		}
		if severeOrWorse(r.DepressionLevel) || severeOrWorse(r.AnxietyLevel) || severeOrWorse(r.StressLevel) {
			highRisk[r.UserID] = true
		}
		if cur := latest[r.UserID]; cur == nil || r.CreatedAt.After(cur.CreatedAt) {
			latest[r.UserID] = r
		}
	}
	summary.Stats.HighRiskUsers = len(highRisk)

	for _, r := range latest {
		if _, ok := summary.StressDistribution[r.StressLevel]; ok {
			summary.StressDistribution[r.StressLevel]++
		}
	}

	// Last 7 calendar days, oldest to newest.
	summary.WeeklyTrend = make([]TrendPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := dayKey(now.AddDate(0, 0, -i))
		summary.WeeklyTrend = append(summary.WeeklyTrend, TrendPoint{Date: day, Count: countsByDay[day]})
	}
	return summary, nil
}

// UserList returns one row per student with the latest stress level standing
// in as a coarse status.
func (s *DashboardService) UserList() ([]*UserOverview, error) {
	students, err := s.store.ListUsersByRole(RoleStudent)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListTestResults()
	if err != nil {
		return nil, err
	}

	latest := map[string]*TestResult{}
	for _, r := range results {
		if cur := latest[r.UserID]; cur == nil || r.CreatedAt.After(cur.CreatedAt) {
			latest[r.UserID] = r
		}
	}

	sort.SliceStable(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	out := make([]*UserOverview, 0, len(students))
	for _, u := range students {
		row := &UserOverview{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			JoinedAt:       u.CreatedAt.Format(overviewDateFormat),
			LastAssessment: "-",
			Status:         StatusNotTested,
		}
		if r := latest[u.ID]; r != nil {
			row.LastAssessment = r.CreatedAt.Format(overviewDateFormat)
			row.Status = string(r.StressLevel)
		}
		out = append(out, row)
	}
	return out, nil
}

func severeOrWorse(level Severity) bool {
	return level == SeveritySevere || level == SeverityExtreme
}
