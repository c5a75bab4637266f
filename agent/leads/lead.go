package leads

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
)

const (
	intentUnknown       = "Не указано"
	budgetUnknown       = "не указан"
	timelineUnknown     = "не указаны"
	priorityUnknown     = "не указаны"
	notesSummaryPattern = "Бюджет: %s, Сроки: %s, Приоритет: %s"
)

// FromSession derives the lead captured at contact time. The session is not modified.
func FromSession(s *statex.Session, clientName, contact, source string, now time.Time) contractx.Lead {
	return contractx.Lead{
		Timestamp:  now,
		ChatID:     s.ChatID,
		ClientName: clientName,
		Contact:    contact,
		Intent:     s.AnswerOr(statex.AnswerIntent, intentUnknown),
		Notes:      Notes(s),
		Source:     source,
		Status:     contractx.LeadStatusNew,
	}
}

// Notes is the last recommendation verbatim, or a summary of the qualifying answers.
func Notes(s *statex.Session) string {
	if s.LastRecommendation != "" {
		return s.LastRecommendation
	}
	return fmt.Sprintf(notesSummaryPattern,
		s.AnswerOr(statex.AnswerBudget, budgetUnknown),
		s.AnswerOr(statex.AnswerTimeline, timelineUnknown),
		s.AnswerOr(statex.AnswerPriority, priorityUnknown),
	)
}
