package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mindcare-id/mindcare/internal/middleware"
	"github.com/mindcare-id/mindcare/internal/services"
)

// Router wires the HTTP surface to the domain services. Handlers decode and
// validate typed request structs at the boundary, resolve the caller identity
// from the auth claims, and pass it into services explicitly.
type Router struct {
	auth       *services.AuthService
	assessment *services.AssessmentService
	questions  *services.QuestionService
	chat       *services.ChatService
	moods      *services.MoodService
	dashboard  *services.DashboardService
	validate   *validator.Validate
	log        *zap.Logger
}

func NewRouter(
	auth *services.AuthService,
	assessment *services.AssessmentService,
	questions *services.QuestionService,
	chat *services.ChatService,
	moods *services.MoodService,
	dashboard *services.DashboardService,
	log *zap.Logger,
) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		auth:       auth,
		assessment: assessment,
		questions:  questions,
		chat:       chat,
		moods:      moods,
		dashboard:  dashboard,
		validate:   validator.New(),
		log:        log,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/login", rt.handleLogin)       // POST

	mux.Handle("/api/user", middleware.RequireAuth(http.HandlerFunc(rt.handleCurrentUser)))
	mux.Handle("/api/submit-test", middleware.RequireAuth(http.HandlerFunc(rt.handleSubmitTest)))
	mux.Handle("/api/history", middleware.RequireAuth(http.HandlerFunc(rt.handleHistory)))
	mux.Handle("/api/questions", middleware.RequireAuth(http.HandlerFunc(rt.handleQuestions)))
	mux.Handle("/api/questions/", middleware.RequireAuth(http.HandlerFunc(rt.handleQuestionByID)))
	mux.Handle("/api/contacts", middleware.RequireAuth(http.HandlerFunc(rt.handleContacts)))
	mux.Handle("/api/messages", middleware.RequireAuth(http.HandlerFunc(rt.handleSendMessage)))
	mux.Handle("/api/messages/", middleware.RequireAuth(http.HandlerFunc(rt.handleThread)))
	mux.Handle("/api/moods", middleware.RequireAuth(http.HandlerFunc(rt.handleMoods)))

	mux.Handle("/api/counselor/stats", middleware.RequireRole(services.RoleCounselor, http.HandlerFunc(rt.handleCounselorStats)))
	mux.Handle("/api/counselor/users", middleware.RequireRole(services.RoleCounselor, http.HandlerFunc(rt.handleCounselorUsers)))
}

// --- request payloads ---

type registerReq struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=student counselor"`
}

type loginReq struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type answerReq struct {
	QuestionID string `json:"question_id" validate:"required"`
	Value      *int   `json:"value"       validate:"required,min=0,max=3"`
}

type submitTestReq struct {
	Answers []answerReq `json:"answers" validate:"required,min=1,dive"`
}

type questionReq struct {
	Question string `json:"question" validate:"required"`
	Category string `json:"category" validate:"required,oneof=stress anxiety depression"`
	Order    *int   `json:"order"    validate:"required"`
}

type sendMessageReq struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Message    string `json:"message"     validate:"required"`
}

type moodReq struct {
	Emoji    string `json:"emoji" validate:"required"`
	Keywords string `json:"keywords"`
	Note     string `json:"note"`
}

// --- handlers ---

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req registerReq
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Register(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": res.Token, "user": res.User})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req loginReq
	if !rt.decode(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user": res.User})
}

func (rt *Router) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	u, err := rt.auth.CurrentUser(claims.UID)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": u})
}

func (rt *Router) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req submitTestReq
	if !rt.decode(w, r, &req) {
		return
	}
	answers := make([]services.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, services.Answer{QuestionID: a.QuestionID, Value: *a.Value})
	}
	result, err := rt.assessment.Submit(claims.UID, answers)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "Assessment submitted successfully", "data": result})
}

func (rt *Router) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	history, err := rt.assessment.History(claims.UID)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": history})
}

func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		questions, err := rt.questions.List()
		if err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": questions})
	case http.MethodPost:
		var req questionReq
		if !rt.decode(w, r, &req) {
			return
		}
		q, err := rt.questions.Create(claims.Role, req.Question, services.Category(req.Category), *req.Order)
		if err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Question created successfully", "data": q})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleQuestionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	switch r.Method {
	case http.MethodPut:
		var req questionReq
		if !rt.decode(w, r, &req) {
			return
		}
		q, err := rt.questions.Update(claims.Role, id, req.Question, services.Category(req.Category), *req.Order)
		if err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Question updated successfully", "data": q})
	case http.MethodDelete:
		if err := rt.questions.Delete(claims.Role, id); err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Question deleted successfully"})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleContacts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	contacts, err := rt.chat.Contacts(claims.UID, claims.Role)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": contacts})
}

func (rt *Router) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req sendMessageReq
	if !rt.decode(w, r, &req) {
		return
	}
	m, err := rt.chat.Send(claims.UID, req.ReceiverID, req.Message)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": m})
}

func (rt *Router) handleThread(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	counterpartID := strings.TrimPrefix(r.URL.Path, "/api/messages/")
	if counterpartID == "" || strings.Contains(counterpartID, "/") {
		http.NotFound(w, r)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	thread, err := rt.chat.Thread(claims.UID, counterpartID)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": thread})
}

func (rt *Router) handleMoods(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		days := 0
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				rt.writeErr(w, services.NewFieldError("days", "days must be an integer"))
				return
			}
			days = n
		}
		moods, err := rt.moods.List(claims.UID, days)
		if err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": moods})
	case http.MethodPost:
		var req moodReq
		if !rt.decode(w, r, &req) {
			return
		}
		m, err := rt.moods.Submit(claims.UID, req.Emoji, req.Keywords, req.Note)
		if err != nil {
			rt.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": "Mood tracked successfully", "data": m})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) handleCounselorStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	summary, err := rt.dashboard.Stats()
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats": summary.Stats,
		"charts": map[string]any{
			"stress_distribution": summary.StressDistribution,
			"weekly_trend":        summary.WeeklyTrend,
		},
	})
}

func (rt *Router) handleCounselorUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	rows, err := rt.dashboard.UserList()
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// --- plumbing ---

func (rt *Router) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return false
	}
	if err := rt.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": "validation failed",
				"field": strings.ToLower(fe.Field()),
				"rule":  fe.Tag(),
			})
			return false
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed"})
		return false
	}
	return true
}

func (rt *Router) writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusUnprocessableEntity
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		body := map[string]any{"error": se.Message}
		if se.Field != "" {
			body["field"] = se.Field
		}
		writeJSON(w, status, body)
		return
	}
	rt.log.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		methodNotAllowed(w)
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
}
