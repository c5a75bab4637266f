package state

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Session is the per-chat conversation record driven by the dialogue engine.
// - Stage: position in greeting -> qualifying -> offering -> collecting_contact -> done
// - Answers: free-text answers keyed by the recognized AnswerKey set only
type Session struct {
	ChatID int64 `json:"chat_id"`

	Stage              Stage                `json:"stage"`
	Answers            map[AnswerKey]string `json:"answers"`
	LastRecommendation string               `json:"last_recommendation,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stage string

const (
	StageGreeting          Stage = "greeting"
	StageQualifying        Stage = "qualifying"
	StageOffering          Stage = "offering"
	StageCollectingContact Stage = "collecting_contact"
	StageDone              Stage = "done"
)

func (s Stage) Valid() bool {
	switch s {
	case StageGreeting, StageQualifying, StageOffering, StageCollectingContact, StageDone:
		return true
	default:
		return false
	}
}

type AnswerKey string

const (
	AnswerIntent   AnswerKey = "intent"
	AnswerBudget   AnswerKey = "budget"
	AnswerTimeline AnswerKey = "timeline"
	AnswerPriority AnswerKey = "priority"
	AnswerContact  AnswerKey = "contact"
)

func (k AnswerKey) Valid() bool {
	switch k {
	case AnswerIntent, AnswerBudget, AnswerTimeline, AnswerPriority, AnswerContact:
		return true
	default:
		return false
	}
}

var (
	ErrNilSession       = errors.New("session is nil")
	ErrInvalidChatID    = errors.New("chat id is empty")
	ErrUnknownStage     = errors.New("unknown stage")
	ErrUnknownAnswerKey = errors.New("unknown answer key")
)

func NewSession(chatID int64, now time.Time) *Session {
	return &Session{
		ChatID:    chatID,
		Stage:     StageGreeting,
		Answers:   make(map[AnswerKey]string, 5),
		StartedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) SetStage(stage Stage) error {
	if s == nil {
		return ErrNilSession
	}
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	s.Stage = stage
	return nil
}

func (s *Session) SetAnswer(key AnswerKey, value string) error {
	if s == nil {
		return ErrNilSession
	}
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAnswerKey, key)
	}
	if s.Answers == nil {
		s.Answers = make(map[AnswerKey]string, 5)
	}
	s.Answers[key] = value
	return nil
}

func (s *Session) Answer(key AnswerKey) (string, bool) {
	if s == nil || s.Answers == nil {
		return "", false
	}
	v, ok := s.Answers[key]
	return v, ok
}

// AnswerOr returns the stored answer or placeholder when the key is unset or blank.
func (s *Session) AnswerOr(key AnswerKey, placeholder string) string {
	if v, ok := s.Answer(key); ok && v != "" {
		return v
	}
	return placeholder
}

// IsReturning reports an unfinished dialogue that /start should resume rather than restart.
func (s *Session) IsReturning() bool {
	if s == nil {
		return false
	}
	return s.Stage != StageGreeting && s.Stage != StageDone
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Answers = maps.Clone(s.Answers)
	if out.Answers == nil {
		out.Answers = make(map[AnswerKey]string, 5)
	}
	return &out
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if s.ChatID == 0 {
		return ErrInvalidChatID
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, s.Stage)
	}
	for k := range s.Answers {
		if !k.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownAnswerKey, k)
		}
	}
	return nil
}
