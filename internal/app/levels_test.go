package app_test

import (
	"reflect"
	"testing"

	"material-quiz-service/internal/app"
	"material-quiz-service/internal/domain"
)

func beginnerSequence(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			ID:         string(rune('a'+i)) + "1",
			MaterialID: "mat-1",
			Difficulty: domain.DifficultyBeginner,
		})
	}
	return questions
}

func TestComputeLevelsFirstLevelNeverLocked(t *testing.T) {
	questions := beginnerSequence(5)
	levels := app.ComputeLevels(questions, map[string]struct{}{})

	if len(levels) != 5 {
		t.Fatalf("expected 5 levels, got %d", len(levels))
	}
	if levels[0].Status != domain.LevelUnlocked {
		t.Fatalf("expected first level unlocked, got %s", levels[0].Status)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Status != domain.LevelLocked {
			t.Fatalf("expected level %d locked, got %s", i+1, levels[i].Status)
		}
	}
}

func TestComputeLevelsSequentialGate(t *testing.T) {
	questions := beginnerSequence(4)
	answered := map[string]struct{}{questions[0].ID: {}}

	levels := app.ComputeLevels(questions, answered)
	want := []domain.LevelStatus{domain.LevelCompleted, domain.LevelUnlocked, domain.LevelLocked, domain.LevelLocked}
	for i, status := range want {
		if levels[i].Status != status {
			t.Fatalf("level %d: expected %s, got %s", i+1, status, levels[i].Status)
		}
	}

	// A later correct answer does not unlock anything beyond its immediate
	// successor.
	answered[questions[2].ID] = struct{}{}
	levels = app.ComputeLevels(questions, answered)
	if levels[1].Status != domain.LevelUnlocked {
		t.Fatalf("expected level 2 still unlocked, got %s", levels[1].Status)
	}
	if levels[2].Status != domain.LevelCompleted {
		t.Fatalf("expected level 3 completed, got %s", levels[2].Status)
	}
	if levels[3].Status != domain.LevelUnlocked {
		t.Fatalf("expected level 4 unlocked behind completed level 3, got %s", levels[3].Status)
	}
}

func TestComputeLevelsInvariant(t *testing.T) {
	questions := beginnerSequence(6)
	answered := map[string]struct{}{questions[0].ID: {}, questions[1].ID: {}, questions[3].ID: {}}

	levels := app.ComputeLevels(questions, answered)
	for i, level := range levels {
		if i == 0 && level.Status == domain.LevelLocked {
			t.Fatalf("level 1 must never be locked")
		}
		if i > 0 && level.Status != domain.LevelLocked {
			if _, prevDone := answered[questions[i-1].ID]; !prevDone && level.Status == domain.LevelUnlocked {
				t.Fatalf("level %d unlocked without completed predecessor", i+1)
			}
		}
		if level.Number != i+1 {
			t.Fatalf("level numbering broken at index %d: %d", i, level.Number)
		}
	}
}

func TestComputeLevelsIsPure(t *testing.T) {
	questions := beginnerSequence(5)
	answered := map[string]struct{}{questions[0].ID: {}, questions[1].ID: {}}

	first := app.ComputeLevels(questions, answered)
	second := app.ComputeLevels(questions, answered)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical inputs:\n%+v\n%+v", first, second)
	}
}

func TestComputeLevelsEmpty(t *testing.T) {
	levels := app.ComputeLevels(nil, map[string]struct{}{})
	if len(levels) != 0 {
		t.Fatalf("expected no levels, got %d", len(levels))
	}
}
