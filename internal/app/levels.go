package app

import (
	"context"

	"material-quiz-service/internal/domain"
)

// ListLevels computes the per-question unlock states for a material and
// difficulty. The result is re-derived from the progress log on every call;
// no unlock state is ever persisted. Guest correctness is read from the same
// log, keyed by the session key.
func (s *QuizService) ListLevels(ctx context.Context, materialID, difficulty string, identity domain.Identity) ([]domain.Level, error) {
	if _, ok := domain.ParseDifficulty(difficulty); !ok {
		return nil, domain.Invalid("difficulty", "must be beginner, medium or hard")
	}

	questions, err := s.ListQuestions(ctx, materialID, difficulty, identity)
	if err != nil {
		return nil, err
	}
	answered, err := s.progress.CorrectQuestionIDs(ctx, identity.Key(), materialID)
	if err != nil {
		return nil, err
	}
	return ComputeLevels(questions, answered), nil
}

// ComputeLevels derives the level sequence for an ordered question set. The
// gate is strictly sequential:
//
//   - a question answered correctly at least once is completed
//   - the first question is always open
//   - any other question opens only once its immediate predecessor is
//     completed
//
// The function is pure; identical inputs always yield identical output.
func ComputeLevels(questions []domain.Question, answered map[string]struct{}) []domain.Level {
	levels := make([]domain.Level, 0, len(questions))
	for i, q := range questions {
		status := domain.LevelLocked
		if _, done := answered[q.ID]; done {
			status = domain.LevelCompleted
		} else if i == 0 {
			status = domain.LevelUnlocked
		} else if _, prevDone := answered[questions[i-1].ID]; prevDone {
			status = domain.LevelUnlocked
		}
		levels = append(levels, domain.Level{
			Number:     i + 1,
			QuestionID: q.ID,
			Status:     status,
			Difficulty: q.Difficulty,
		})
	}
	return levels
}
