package domain

import "time"

// Difficulty partitions a material's question bank into tiers.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
)

// FilterAll selects questions from every difficulty tier.
const FilterAll = "all"

// Difficulties returns the tiers in presentation order. Question selection
// concatenates groups in this order, which fixes level numbering downstream.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty validates a raw tier name.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch Difficulty(raw) {
	case DifficultyBeginner, DifficultyMedium, DifficultyHard:
		return Difficulty(raw), true
	}
	return "", false
}

// Answer is one option for a question. The explanation is only surfaced
// when the answer is correct.
type Answer struct {
	ID          string `json:"id"`
	QuestionID  string `json:"questionId"`
	Text        string `json:"text"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// Question is an MCQ belonging to a material. Questions are authored
// externally and read-only here.
type Question struct {
	ID         string     `json:"id"`
	MaterialID string     `json:"materialId"`
	Difficulty Difficulty `json:"difficulty"`
	Text       string     `json:"text"`
	Answers    []Answer   `json:"answers,omitempty"`
}

// Material is a topic containing a question bank, listable in creation order.
type Material struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"createdAt"`
	Questions []Question `json:"questions,omitempty"`
}

// QuestionByID finds a question in the material.
func (m Material) QuestionByID(questionID string) (Question, bool) {
	for _, q := range m.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}

// BankConfig is the admin-authored per-material exposure quota. At most one
// config is expected to be active per material; violations are a
// misconfiguration and resolve to the first active row found.
type BankConfig struct {
	MaterialID    string `json:"materialId"`
	BeginnerCount int    `json:"beginnerCount"`
	MediumCount   int    `json:"mediumCount"`
	HardCount     int    `json:"hardCount"`
	Active        bool   `json:"active"`
}

// Quota maps a difficulty to its configured count. Unknown tiers get 0.
func (c BankConfig) Quota(d Difficulty) int {
	switch d {
	case DifficultyBeginner:
		return c.BeginnerCount
	case DifficultyMedium:
		return c.MediumCount
	case DifficultyHard:
		return c.HardCount
	}
	return 0
}

// Catalog is the full read-only content snapshot: materials (with questions
// and answers) plus bank configs.
type Catalog struct {
	Materials []Material   `json:"materials"`
	Configs   []BankConfig `json:"configs"`
}

// MaterialByID finds a material in the catalog.
func (c Catalog) MaterialByID(materialID string) (Material, bool) {
	for _, m := range c.Materials {
		if m.ID == materialID {
			return m, true
		}
	}
	return Material{}, false
}

// ActiveConfig returns the first active bank config for the material.
func (c Catalog) ActiveConfig(materialID string) (BankConfig, bool) {
	for _, cfg := range c.Configs {
		if cfg.MaterialID == materialID && cfg.Active {
			return cfg, true
		}
	}
	return BankConfig{}, false
}

// ProgressEntry is one recorded submission. The log is append-only: every
// attempt adds a row, and "answered correctly" is derived as the existence
// of at least one correct row for the (key, material, question) triple.
type ProgressEntry struct {
	UserKey       string    `json:"userKey"`
	MaterialID    string    `json:"materialId"`
	QuestionID    string    `json:"questionId"`
	Answered      bool      `json:"answered"`
	Correct       bool      `json:"correct"`
	Score         int       `json:"score"`
	AttemptNumber int       `json:"attemptNumber"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Identity is the caller identity threaded through every core call.
type Identity struct {
	UserID     string // registered user id; empty for anonymous callers
	SessionKey string // stable per-session key for anonymous callers
	Restricted bool   // role-limited account treated as a guest
}

// Guest reports whether the identity is subject to the reduced fixed quotas.
func (i Identity) Guest() bool {
	return i.UserID == "" || i.Restricted
}

// Key returns the stable key progress is recorded under.
func (i Identity) Key() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.SessionKey
}

// RegisteredIdentity builds an identity for a logged-in user.
func RegisteredIdentity(userID string) Identity {
	return Identity{UserID: userID}
}

// GuestIdentity builds an identity for an anonymous session.
func GuestIdentity(sessionKey string) Identity {
	return Identity{SessionKey: sessionKey}
}

// LevelStatus is the unlock state of a question within its sequence.
type LevelStatus string

const (
	LevelLocked    LevelStatus = "locked"
	LevelUnlocked  LevelStatus = "unlocked"
	LevelCompleted LevelStatus = "completed"
)

// Level is a question's position and unlock state in the selected sequence.
type Level struct {
	Number     int         `json:"level"`
	QuestionID string      `json:"questionId"`
	Status     LevelStatus `json:"status"`
	Difficulty Difficulty  `json:"difficulty"`
}

// AnswerSubmission models a single answer attempt from a client. The attempt
// number is client-tracked by contract.
type AnswerSubmission struct {
	MaterialID     string
	QuestionID     string
	AnswerID       string
	AttemptNumber  int
	PotentialScore int
	Difficulty     string // only used for the return hint; defaults to "all"
}

// EvaluationResult is the outcome of a submission.
type EvaluationResult struct {
	Correct     bool   `json:"correct"`
	Message     string `json:"message"`
	NextURL     string `json:"nextUrl,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// QuotaSet is the effective per-difficulty exposure for one material.
type QuotaSet struct {
	Beginner int `json:"beginner"`
	Medium   int `json:"medium"`
	Hard     int `json:"hard"`
}

// Total sums the quotas across tiers.
func (q QuotaSet) Total() int {
	return q.Beginner + q.Medium + q.Hard
}

// MaterialOverview pairs a material with its effective quotas.
type MaterialOverview struct {
	Material Material `json:"material"`
	Quotas   QuotaSet `json:"config"`
}

// DashboardSummary aggregates configured question counts across materials.
type DashboardSummary struct {
	TotalMaterials    int `json:"totalMaterials"`
	TotalQuestions    int `json:"totalQuestions"`
	BeginnerQuestions int `json:"beginnerQuestions"`
	MediumQuestions   int `json:"mediumQuestions"`
	HardQuestions     int `json:"hardQuestions"`
}
