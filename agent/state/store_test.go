package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.Load(context.Background(), 42)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}

	_, err = store.Load(context.Background(), 0)
	if !errors.Is(err, ErrInvalidChatID) {
		t.Fatalf("Load(0) error = %v, want ErrInvalidChatID", err)
	}
}

func TestMemoryStoreSaveLoadRoundTripIsolated(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	s := NewSession(42, time.Now())
	s.Stage = StageQualifying
	_ = s.SetAnswer(AnswerIntent, "Нужен сайт")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// mutations after Save must not reach the stored record
	_ = s.SetAnswer(AnswerBudget, "До 100,000 руб")

	got, err := store.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Stage != StageQualifying {
		t.Fatalf("Stage = %q", got.Stage)
	}
	if len(got.Answers) != 1 || got.Answers[AnswerIntent] != "Нужен сайт" {
		t.Fatalf("Answers = %v", got.Answers)
	}

	// and mutations of a loaded copy must not either
	got.Stage = StageDone
	again, _ := store.Load(ctx, 42)
	if again.Stage != StageQualifying {
		t.Fatalf("stored Stage = %q after mutating loaded copy", again.Stage)
	}
}

func TestMemoryStoreSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	s := NewSession(1, time.Now())
	s.Stage = Stage("bogus")
	if err := store.Save(context.Background(), s); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("Save() error = %v, want ErrUnknownStage", err)
	}
	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Save(nil) error = %v, want ErrNilSession", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestMemoryStoreSaveReplacesRecord(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	old := NewSession(7, time.Now())
	old.Stage = StageCollectingContact
	old.LastRecommendation = "Лендинг"
	_ = old.SetAnswer(AnswerIntent, "Нужен сайт")
	_ = store.Save(ctx, old)

	fresh := NewSession(7, time.Now())
	_ = store.Save(ctx, fresh)

	got, _ := store.Load(ctx, 7)
	if len(got.Answers) != 0 || got.LastRecommendation != "" || got.Stage != StageGreeting {
		t.Fatalf("Save() merged records: %+v", got)
	}
}
