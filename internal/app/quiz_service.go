package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"material-quiz-service/internal/domain"
)

// guestQuota is the fixed per-difficulty exposure for guest identities.
// It is policy, not configuration: active bank configs are bypassed entirely
// for guests.
const guestQuota = 3

// ContentRepository serves the read-only authored content (from cache or
// backing store). Materials are listed in creation order.
type ContentRepository interface {
	ListMaterials(ctx context.Context) ([]domain.Material, error)
	GetMaterial(ctx context.Context, materialID string) (domain.Material, error)
	ActiveBankConfig(ctx context.Context, materialID string) (domain.BankConfig, bool, error)
}

// ProgressRepository is the append-only submission log. Entries are never
// updated or deleted; correctness is derived on the read side.
type ProgressRepository interface {
	Append(ctx context.Context, entry domain.ProgressEntry) error
	CorrectQuestionIDs(ctx context.Context, userKey, materialID string) (map[string]struct{}, error)
	AnsweredQuestionIDs(ctx context.Context, userKey, materialID string) (map[string]struct{}, error)
	AttemptCount(ctx context.Context, userKey, materialID, questionID string) (int, error)
}

// GuestSessionStore holds per-session guest state: the answered-for-review
// set and attempt counters. This is deliberately separate from the progress
// log, which still records guest submissions under the session key for
// level gating.
type GuestSessionStore interface {
	RecordAttempt(ctx context.Context, sessionKey, materialID, questionID string) (int, error)
	AnsweredQuestionIDs(ctx context.Context, sessionKey, materialID string) (map[string]struct{}, error)
	AttemptCount(ctx context.Context, sessionKey, materialID, questionID string) (int, error)
}

// QuizService contains the core quiz use cases: question selection, level
// gating, answer evaluation and the guest/registered split.
type QuizService struct {
	content  ContentRepository
	progress ProgressRepository
	guests   GuestSessionStore
	clock    func() time.Time
}

func NewQuizService(content ContentRepository, progress ProgressRepository, guests GuestSessionStore) *QuizService {
	return &QuizService{
		content:  content,
		progress: progress,
		guests:   guests,
		clock:    time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(content ContentRepository, progress ProgressRepository, guests GuestSessionStore, now func() time.Time) *QuizService {
	s := NewQuizService(content, progress, guests)
	s.clock = now
	return s
}

// ListMaterials returns materials in creation order with their effective
// quotas. Guests only see the first half of the catalog (rounded up).
func (s *QuizService) ListMaterials(ctx context.Context, identity domain.Identity) ([]domain.MaterialOverview, error) {
	materials, err := s.content.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	if identity.Guest() {
		materials = materials[:(len(materials)+1)/2]
	}

	overviews := make([]domain.MaterialOverview, 0, len(materials))
	for _, material := range materials {
		quotas, err := s.quotaSet(ctx, material, identity)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, domain.MaterialOverview{Material: material, Quotas: quotas})
	}
	return overviews, nil
}

// ListQuestions resolves the ordered, quota-bounded question set for a
// material. With the "all" filter, groups are bounded independently and
// concatenated beginner, medium, hard.
func (s *QuizService) ListQuestions(ctx context.Context, materialID, filter string, identity domain.Identity) ([]domain.Question, error) {
	material, err := s.content.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	cfg, hasCfg, err := s.content.ActiveBankConfig(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if filter == "" || filter == domain.FilterAll {
		var selected []domain.Question
		for _, d := range domain.Difficulties() {
			group := questionsOfDifficulty(material.Questions, d)
			selected = append(selected, boundGroup(group, resolveQuota(cfg, hasCfg, identity, d, len(group)))...)
		}
		return selected, nil
	}

	d, ok := domain.ParseDifficulty(filter)
	if !ok {
		return nil, domain.Invalid("difficulty", "must be beginner, medium, hard or all")
	}
	group := questionsOfDifficulty(material.Questions, d)
	return boundGroup(group, resolveQuota(cfg, hasCfg, identity, d, len(group))), nil
}

// AttemptCount reports how many attempts the identity has made on a
// question. Guests are counted from session state, registered users from
// the progress log.
func (s *QuizService) AttemptCount(ctx context.Context, materialID, questionID string, identity domain.Identity) (int, error) {
	material, err := s.content.GetMaterial(ctx, materialID)
	if err != nil {
		return 0, err
	}
	if _, ok := material.QuestionByID(questionID); !ok {
		return 0, domain.ErrQuestionNotFound
	}
	if identity.Guest() {
		return s.guests.AttemptCount(ctx, identity.Key(), materialID, questionID)
	}
	return s.progress.AttemptCount(ctx, identity.Key(), materialID, questionID)
}

// SubmitAnswer evaluates a submission against the canonical answer flag and
// appends one progress entry, wrong attempts included. On a correct answer
// the result carries a hint back to the level list; the gate computation
// will then show the next level unlocked.
func (s *QuizService) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission, identity domain.Identity) (domain.EvaluationResult, error) {
	material, err := s.content.GetMaterial(ctx, sub.MaterialID)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	question, ok := material.QuestionByID(sub.QuestionID)
	if !ok {
		return domain.EvaluationResult{}, domain.ErrQuestionNotFound
	}
	if verr := validateSubmission(sub); verr != nil {
		return domain.EvaluationResult{}, verr
	}

	var answer domain.Answer
	found := false
	for _, a := range question.Answers {
		if a.ID == sub.AnswerID {
			answer = a
			found = true
			break
		}
	}
	if !found {
		return domain.EvaluationResult{}, domain.ErrAnswerNotFound
	}

	score := 0
	if answer.Correct {
		score = sub.PotentialScore
	}
	entry := domain.ProgressEntry{
		UserKey:       identity.Key(),
		MaterialID:    material.ID,
		QuestionID:    question.ID,
		Answered:      true,
		Correct:       answer.Correct,
		Score:         score,
		AttemptNumber: sub.AttemptNumber,
		CreatedAt:     s.clock(),
	}
	if err := s.progress.Append(ctx, entry); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("record progress: %w", err)
	}
	if identity.Guest() {
		if _, err := s.guests.RecordAttempt(ctx, identity.Key(), material.ID, question.ID); err != nil {
			return domain.EvaluationResult{}, fmt.Errorf("record guest attempt: %w", err)
		}
	}

	if !answer.Correct {
		return domain.EvaluationResult{
			Correct: false,
			Message: "Wrong answer, please try again.",
		}, nil
	}
	return domain.EvaluationResult{
		Correct:     true,
		Message:     "Correct! Head back to the level list.",
		NextURL:     levelsURL(material.ID, sub.Difficulty),
		Explanation: answer.Explanation,
	}, nil
}

// ReviewQuestions returns the questions the identity has already answered,
// with answers and explanations, optionally filtered by difficulty. Guest
// review reads the ephemeral session set; registered review reads the
// progress log.
func (s *QuizService) ReviewQuestions(ctx context.Context, materialID, filter string, identity domain.Identity) ([]domain.Question, error) {
	material, err := s.content.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}

	var answered map[string]struct{}
	if identity.Guest() {
		answered, err = s.guests.AnsweredQuestionIDs(ctx, identity.Key(), materialID)
	} else {
		answered, err = s.progress.AnsweredQuestionIDs(ctx, identity.Key(), materialID)
	}
	if err != nil {
		return nil, err
	}

	var reviewable []domain.Question
	for _, q := range material.Questions {
		if filter != "" && filter != domain.FilterAll && string(q.Difficulty) != filter {
			continue
		}
		if _, ok := answered[q.ID]; ok {
			reviewable = append(reviewable, q)
		}
	}
	return reviewable, nil
}

// Dashboard aggregates the configured question exposure across the whole
// catalog. Guests still see every material counted here; only their per-tier
// quotas shrink. The halving rule applies to the material listing alone.
func (s *QuizService) Dashboard(ctx context.Context, identity domain.Identity) (domain.DashboardSummary, error) {
	materials, err := s.content.ListMaterials(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	summary := domain.DashboardSummary{TotalMaterials: len(materials)}
	for _, material := range materials {
		quotas, err := s.quotaSet(ctx, material, identity)
		if err != nil {
			return domain.DashboardSummary{}, err
		}
		summary.BeginnerQuestions += quotas.Beginner
		summary.MediumQuestions += quotas.Medium
		summary.HardQuestions += quotas.Hard
	}
	summary.TotalQuestions = summary.BeginnerQuestions + summary.MediumQuestions + summary.HardQuestions
	return summary, nil
}

// quotaSet resolves the effective quotas for one material. Guests always get
// min(3, available) per tier; registered users get the active config counts,
// or everything available when no config is active.
func (s *QuizService) quotaSet(ctx context.Context, material domain.Material, identity domain.Identity) (domain.QuotaSet, error) {
	if identity.Guest() {
		return domain.QuotaSet{
			Beginner: minInt(guestQuota, len(questionsOfDifficulty(material.Questions, domain.DifficultyBeginner))),
			Medium:   minInt(guestQuota, len(questionsOfDifficulty(material.Questions, domain.DifficultyMedium))),
			Hard:     minInt(guestQuota, len(questionsOfDifficulty(material.Questions, domain.DifficultyHard))),
		}, nil
	}

	cfg, hasCfg, err := s.content.ActiveBankConfig(ctx, material.ID)
	if err != nil {
		return domain.QuotaSet{}, err
	}
	if hasCfg {
		return domain.QuotaSet{
			Beginner: cfg.BeginnerCount,
			Medium:   cfg.MediumCount,
			Hard:     cfg.HardCount,
		}, nil
	}
	return domain.QuotaSet{
		Beginner: len(questionsOfDifficulty(material.Questions, domain.DifficultyBeginner)),
		Medium:   len(questionsOfDifficulty(material.Questions, domain.DifficultyMedium)),
		Hard:     len(questionsOfDifficulty(material.Questions, domain.DifficultyHard)),
	}, nil
}

// resolveQuota returns the bound for one difficulty group.
func resolveQuota(cfg domain.BankConfig, hasCfg bool, identity domain.Identity, d domain.Difficulty, available int) int {
	if identity.Guest() {
		return minInt(guestQuota, available)
	}
	if hasCfg {
		return cfg.Quota(d)
	}
	return available
}

// boundGroup takes a prefix of the group up to quota, never a sample. A
// quota beyond availability returns everything available.
func boundGroup(group []domain.Question, quota int) []domain.Question {
	if quota < 0 {
		quota = 0
	}
	if quota > len(group) {
		quota = len(group)
	}
	return group[:quota]
}

func questionsOfDifficulty(questions []domain.Question, d domain.Difficulty) []domain.Question {
	var group []domain.Question
	for _, q := range questions {
		if q.Difficulty == d {
			group = append(group, q)
		}
	}
	return group
}

func validateSubmission(sub domain.AnswerSubmission) *domain.ValidationError {
	fields := map[string]string{}
	if sub.AnswerID == "" {
		fields["answer"] = "answer id is required"
	}
	if sub.AttemptNumber < 1 {
		fields["attempts"] = "attempt number must be a positive integer"
	}
	if sub.PotentialScore < 0 {
		fields["potential_score"] = "potential score must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: fields}
}

func levelsURL(materialID, difficulty string) string {
	if difficulty == "" {
		difficulty = domain.FilterAll
	}
	return fmt.Sprintf("/materials/%s/levels?difficulty=%s", url.PathEscape(materialID), url.QueryEscape(difficulty))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
