package nodes

import statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"

// question is one qualifying step. Adding a step is an edit of qualifyingQuestions.
type question struct {
	key      statex.AnswerKey
	prompt   string
	resume   string
	keyboard [][]string
}

var qualifyingQuestions = []question{
	{
		key: statex.AnswerIntent,
		prompt: "👋 Привет! Я помогу вам выбрать подходящие IT-услуги.\n\n" +
			"Расскажите, пожалуйста, что вас интересует? " +
			"Например, нужен ли вам сайт, мобильное приложение или автоматизация процессов?",
		resume: "Продолжим нашу беседу! Расскажите, что вас интересует?",
		keyboard: [][]string{
			{"Нужен сайт", "Мобильное приложение"},
			{"Автоматизация", "Консультация"},
		},
	},
	{
		key: statex.AnswerBudget,
		prompt: "Понятно! А какой у вас примерный бюджет на этот проект? " +
			"Это поможет мне подобрать оптимальное решение.",
		resume: "Какой у вас примерный бюджет на этот проект?",
		keyboard: [][]string{
			{"До 100,000 руб", "100,000 - 300,000 руб"},
			{"300,000 - 500,000 руб", "Свыше 500,000 руб"},
		},
	},
	{
		key: statex.AnswerTimeline,
		prompt: "Отлично! А когда бы вы хотели получить готовый результат? " +
			"Это поможет спланировать работу.",
		resume: "Когда бы вы хотели получить готовый результат?",
		keyboard: [][]string{
			{"В течение месяца", "1-2 месяца"},
			{"2-3 месяца", "Не спешу"},
		},
	},
	{
		key: statex.AnswerPriority,
		prompt: "Понятно! А что для вас наиболее важно в этом проекте? " +
			"Например, скорость разработки, качество, уникальный дизайн или что-то другое?",
		resume: "Что для вас наиболее важно в этом проекте?",
		keyboard: [][]string{
			{"Скорость разработки", "Качество"},
			{"Уникальный дизайн", "Простота использования"},
			{"Другое"},
		},
	},
}

// nextQuestion returns the index of the first unanswered qualifying question, or -1.
func nextQuestion(s *statex.Session) int {
	for i, q := range qualifyingQuestions {
		if _, ok := s.Answer(q.key); !ok {
			return i
		}
	}
	return -1
}

const (
	resetText       = "✅ Диалог сброшен."
	welcomeBackText = "👋 С возвращением! "

	offerHeader     = "📋 Основываясь на ваших ответах, рекомендую:\n\n"
	contactQuestion = "Хотели бы оставить контакт для обсуждения деталей?"

	contactRequestText = "Отлично! Пожалуйста, оставьте ваш контакт для связи:\n" +
		"• Телефон\n" +
		"• Telegram username\n" +
		"• Email\n\n" +
		"Напишите любой удобный способ связи."
	contactResumeText = "Пожалуйста, оставьте ваш контакт для связи."

	farewellText = "Понятно! Если передумаете, всегда можете написать /start " +
		"для новой консультации. Удачи! 😊"

	leadSavedText = "✅ Спасибо! Ваш контакт сохранен.\n\n" +
		"Наш менеджер свяжется с вами в ближайшее время для обсуждения деталей проекта.\n\n" +
		"Если у вас есть вопросы, пишите /start для новой консультации!"
	leadReceivedText = "✅ Спасибо! Ваш контакт получен.\n\n" +
		"Наш менеджер свяжется с вами в ближайшее время.\n\n" +
		"Если у вас есть вопросы, пишите /start для новой консультации!"

	notSpecified = "не указано"
)

var contactKeyboard = [][]string{{"Да, оставлю контакт", "Пока не готов"}}

// Exact matches after lowercasing; anything else is a contact value.
var (
	affirmativeTokens = map[string]struct{}{
		"да":                  {},
		"да, оставлю контакт": {},
		"да, оставлю":         {},
	}
	negativeTokens = map[string]struct{}{
		"нет":           {},
		"пока не готов": {},
		"не готов":      {},
	}
)
