package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"material-quiz-service/internal/app"
	"material-quiz-service/internal/auth"
	"material-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handler maps the HTTP surface onto the quiz use cases. All policy lives in
// the app layer; handlers only translate params, bodies and errors.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// NewRouter wires middleware, auth endpoints and the quiz API.
func NewRouter(service *app.QuizService, authSvc *auth.Service, allowedOrigins []string) *chi.Mux {
	h := NewHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/auth/login", auth.LoginHandler(authSvc))
	r.Post("/auth/guest", auth.GuestLoginHandler())

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Identity(authSvc))
		pr.Get("/materials", h.listMaterials)
		pr.Get("/materials/{materialID}/questions", h.listQuestions)
		pr.Get("/materials/{materialID}/levels", h.listLevels)
		pr.Get("/materials/{materialID}/review", h.reviewQuestions)
		pr.Get("/materials/{materialID}/questions/{questionID}/attempts", h.attemptCount)
		pr.Post("/materials/{materialID}/questions/{questionID}/answer", h.submitAnswer)
		pr.Get("/dashboard", h.dashboard)
	})
	return r
}

type materialView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

type overviewView struct {
	Material materialView    `json:"material"`
	Config   domain.QuotaSet `json:"config"`
}

type answerView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// questionView hides the correctness flags and explanations that the domain
// model carries; clients must not see the answer key outside of review.
type questionView struct {
	ID         string            `json:"id"`
	MaterialID string            `json:"materialId"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Text       string            `json:"text"`
	Answers    []answerView      `json:"answers"`
}

type reviewAnswerView struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

type reviewQuestionView struct {
	ID         string             `json:"id"`
	MaterialID string             `json:"materialId"`
	Difficulty domain.Difficulty  `json:"difficulty"`
	Text       string             `json:"text"`
	Answers    []reviewAnswerView `json:"answers"`
}

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	overviews, err := h.service.ListMaterials(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]overviewView, 0, len(overviews))
	for _, o := range overviews {
		out = append(out, overviewView{Material: toMaterialView(o.Material), Config: o.Quotas})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	filter := queryDefault(r, "difficulty", domain.FilterAll)
	questions, err := h.service.ListQuestions(r.Context(), chi.URLParam(r, "materialID"), filter, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]questionView, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionView(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listLevels(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	difficulty := queryDefault(r, "difficulty", string(domain.DifficultyBeginner))
	levels, err := h.service.ListLevels(r.Context(), chi.URLParam(r, "materialID"), difficulty, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

func (h *Handler) reviewQuestions(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	filter := queryDefault(r, "difficulty", domain.FilterAll)
	questions, err := h.service.ReviewQuestions(r.Context(), chi.URLParam(r, "materialID"), filter, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]reviewQuestionView, 0, len(questions))
	for _, q := range questions {
		out = append(out, toReviewQuestionView(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) attemptCount(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	count, err := h.service.AttemptCount(r.Context(), chi.URLParam(r, "materialID"), chi.URLParam(r, "questionID"), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"attempts": count})
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())

	var body struct {
		Answer         string `json:"answer"`
		Attempts       *int   `json:"attempts"`
		PotentialScore *int   `json:"potential_score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalid("body", "malformed json body"))
		return
	}

	sub := domain.AnswerSubmission{
		MaterialID: chi.URLParam(r, "materialID"),
		QuestionID: chi.URLParam(r, "questionID"),
		AnswerID:   body.Answer,
		Difficulty: queryDefault(r, "difficulty", domain.FilterAll),
	}
	if body.Attempts != nil {
		sub.AttemptNumber = *body.Attempts
	}
	if body.PotentialScore != nil {
		sub.PotentialScore = *body.PotentialScore
	} else {
		sub.PotentialScore = -1 // missing, rejected by validation
	}

	result, err := h.service.SubmitAnswer(r.Context(), sub, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	summary, err := h.service.Dashboard(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func toMaterialView(m domain.Material) materialView {
	return materialView{ID: m.ID, Title: m.Title, CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339)}
}

func toQuestionView(q domain.Question) questionView {
	answers := make([]answerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, answerView{ID: a.ID, Text: a.Text})
	}
	return questionView{ID: q.ID, MaterialID: q.MaterialID, Difficulty: q.Difficulty, Text: q.Text, Answers: answers}
}

func toReviewQuestionView(q domain.Question) reviewQuestionView {
	answers := make([]reviewAnswerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, reviewAnswerView{ID: a.ID, Text: a.Text, Correct: a.Correct, Explanation: a.Explanation})
	}
	return reviewQuestionView{ID: q.ID, MaterialID: q.MaterialID, Difficulty: q.Difficulty, Text: q.Text, Answers: answers}
}

func queryDefault(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": verr.Fields})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
