package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	leadsx "github.com/tanpawarit/chative-lead-qualifier/agent/leads"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
)

// Collaborators are the external calls a turn may make.
type Collaborators struct {
	Gateway    contractx.Gateway
	Sink       contractx.LeadSink
	LeadSource string
}

// DispatchStage runs the stage machine for one turn and records the replies.
func DispatchStage(ctx context.Context, in *GraphState, deps Collaborators) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.Command == contractx.CommandReset {
		in.reply(contractx.Reply{Text: resetText})
		return in, firstContact(in)
	}
	if in.Command == contractx.CommandStart && !in.Fresh {
		return in, resume(ctx, in, deps)
	}

	var err error
	switch in.Session.Stage {
	case statex.StageGreeting, statex.StageDone:
		err = firstContact(in)
	case statex.StageQualifying:
		err = qualify(ctx, in, deps)
	case statex.StageOffering:
		err = offer(ctx, in, deps, "")
	case statex.StageCollectingContact:
		err = collectContact(ctx, in, deps)
	default:
		err = fmt.Errorf("%w: %q", statex.ErrUnknownStage, in.Session.Stage)
	}
	return in, err
}

func firstContact(in *GraphState) error {
	if err := in.Session.SetStage(statex.StageQualifying); err != nil {
		return err
	}
	q := qualifyingQuestions[0]
	in.reply(contractx.Reply{Text: q.prompt, Keyboard: q.keyboard})
	return nil
}

// resume continues an unfinished session at its current stage without unwinding answers.
func resume(ctx context.Context, in *GraphState, deps Collaborators) error {
	s := in.Session
	switch s.Stage {
	case statex.StageQualifying:
		i := nextQuestion(s)
		if i < 0 {
			if err := s.SetStage(statex.StageOffering); err != nil {
				return err
			}
			return offer(ctx, in, deps, welcomeBackText)
		}
		q := qualifyingQuestions[i]
		in.reply(contractx.Reply{Text: welcomeBackText + q.resume, Keyboard: q.keyboard})
		return nil
	case statex.StageOffering:
		return offer(ctx, in, deps, welcomeBackText)
	case statex.StageCollectingContact:
		in.reply(contractx.Reply{Text: welcomeBackText + contactResumeText})
		return nil
	default:
		return firstContact(in)
	}
}

func qualify(ctx context.Context, in *GraphState, deps Collaborators) error {
	s := in.Session
	i := nextQuestion(s)
	if i < 0 {
		if err := s.SetStage(statex.StageOffering); err != nil {
			return err
		}
		return offer(ctx, in, deps, "")
	}

	q := qualifyingQuestions[i]
	if err := s.SetAnswer(q.key, in.Text); err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Int64("chat_id", in.ChatID).
		Str("key", string(q.key)).
		Str("answer", prefix(in.Text, 50)).
		Msg("answer stored")

	if i+1 < len(qualifyingQuestions) {
		next := qualifyingQuestions[i+1]
		in.reply(contractx.Reply{Text: next.prompt, Keyboard: next.keyboard})
		return nil
	}

	// the message that answered the last question also drives the offer
	if err := s.SetStage(statex.StageOffering); err != nil {
		return err
	}
	return offer(ctx, in, deps, "")
}

func offer(ctx context.Context, in *GraphState, deps Collaborators, greeting string) error {
	s := in.Session
	rec := deps.Gateway.RequestRecommendation(ctx, recommendationContext(s))

	var text string
	if rec.Fallback {
		text = rec.Text + "\n\n" + contactQuestion
	} else {
		s.LastRecommendation = rec.Text
		text = offerHeader + rec.Text + "\n\n" + contactQuestion
	}
	in.reply(contractx.Reply{Text: greeting + text, Keyboard: contactKeyboard})

	return s.SetStage(statex.StageCollectingContact)
}

func recommendationContext(s *statex.Session) string {
	return strings.Join([]string{
		"Потребность клиента: " + s.AnswerOr(statex.AnswerIntent, notSpecified),
		"Бюджет: " + s.AnswerOr(statex.AnswerBudget, notSpecified),
		"Сроки: " + s.AnswerOr(statex.AnswerTimeline, notSpecified),
		"Приоритеты: " + s.AnswerOr(statex.AnswerPriority, notSpecified),
	}, "\n")
}

func collectContact(ctx context.Context, in *GraphState, deps Collaborators) error {
	s := in.Session
	token := strings.ToLower(in.Text)

	if _, ok := affirmativeTokens[token]; ok {
		in.reply(contractx.Reply{Text: contactRequestText, RemoveKeyboard: true})
		return nil
	}
	if _, ok := negativeTokens[token]; ok {
		in.reply(contractx.Reply{Text: farewellText, RemoveKeyboard: true})
		return s.SetStage(statex.StageDone)
	}

	if err := s.SetAnswer(statex.AnswerContact, in.Text); err != nil {
		return err
	}

	lead := leadsx.FromSession(s, in.ClientName, in.Text, deps.LeadSource, in.Now)
	text := leadSavedText
	if !deps.Sink.Append(ctx, lead) {
		log.Ctx(ctx).Warn().Int64("chat_id", in.ChatID).Msg("lead not saved, acknowledging receipt only")
		text = leadReceivedText
	}
	in.reply(contractx.Reply{Text: text, RemoveKeyboard: true})

	log.Ctx(ctx).Info().
		Int64("chat_id", in.ChatID).
		Str("contact", prefix(in.Text, 20)).
		Msg("contact collected")
	return s.SetStage(statex.StageDone)
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
