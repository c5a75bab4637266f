package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	statex "github.com/tanpawarit/chative-lead-qualifier/agent/state"
)

type fakeGateway struct {
	mu       sync.Mutex
	rec      contractx.Recommendation
	answer   string
	delay    time.Duration
	calls    int
	contexts []string
}

func (f *fakeGateway) RequestRecommendation(ctx context.Context, contextText string) contractx.Recommendation {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.contexts = append(f.contexts, contextText)
	return f.rec
}

func (f *fakeGateway) AnswerFreeform(ctx context.Context, question string) string {
	return f.answer + question
}

type fakeSink struct {
	mu    sync.Mutex
	fail  bool
	leads []contractx.Lead
}

func (f *fakeSink) Append(ctx context.Context, lead contractx.Lead) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.leads = append(f.leads, lead)
	return true
}

type failingStore struct {
	statex.Store
	saveErr error
}

func (f failingStore) Save(ctx context.Context, s *statex.Session) error {
	return f.saveErr
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newEngine(t *testing.T, store statex.Store, gw *fakeGateway, sink *fakeSink) *Engine {
	t.Helper()

	e, err := New(store, gw, sink, Config{LeadSource: "telegram"}, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func send(t *testing.T, e *Engine, chatID int64, cmd contractx.Command, text string) []contractx.Reply {
	t.Helper()

	replies, err := e.Handle(context.Background(), Inbound{ChatID: chatID, Command: cmd, Text: text})
	if err != nil {
		t.Fatalf("Handle(%q, %q) error = %v", cmd, text, err)
	}
	return replies
}

func load(t *testing.T, store statex.Store, chatID int64) *statex.Session {
	t.Helper()

	s, err := store.Load(context.Background(), chatID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	if _, err := New(nil, &fakeGateway{}, &fakeSink{}, Config{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(store, nil, &fakeSink{}, Config{}); err == nil {
		t.Fatal("expected error for nil gateway")
	}
	if _, err := New(store, &fakeGateway{}, nil, Config{}); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestHandleScenarioDecline(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	gw := &fakeGateway{rec: contractx.Recommendation{Text: "Корпоративный сайт на CMS"}}
	sink := &fakeSink{}
	e := newEngine(t, store, gw, sink)

	replies := send(t, e, 42, contractx.CommandStart, "")
	if len(replies) != 1 || !strings.HasPrefix(replies[0].Text, "👋 Привет!") {
		t.Fatalf("welcome = %+v", replies)
	}
	if s := load(t, store, 42); s.Stage != statex.StageQualifying || len(s.Answers) != 0 {
		t.Fatalf("after /start: %+v", s)
	}

	send(t, e, 42, "", "Нужен сайт")
	s := load(t, store, 42)
	if s.Stage != statex.StageQualifying || len(s.Answers) != 1 || s.Answers[statex.AnswerIntent] != "Нужен сайт" {
		t.Fatalf("after intent: %+v", s)
	}

	send(t, e, 42, "", "До 100,000 руб")
	send(t, e, 42, "", "В течение месяца")
	s = load(t, store, 42)
	if s.Answers[statex.AnswerBudget] != "До 100,000 руб" || s.Answers[statex.AnswerTimeline] != "В течение месяца" {
		t.Fatalf("after budget/timeline: %+v", s.Answers)
	}

	replies = send(t, e, 42, "", "Качество")
	s = load(t, store, 42)
	if s.Stage != statex.StageCollectingContact {
		t.Fatalf("stage = %q, want collecting_contact", s.Stage)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	want := map[statex.AnswerKey]string{
		statex.AnswerIntent:   "Нужен сайт",
		statex.AnswerBudget:   "До 100,000 руб",
		statex.AnswerTimeline: "В течение месяца",
		statex.AnswerPriority: "Качество",
	}
	if len(s.Answers) != len(want) {
		t.Fatalf("answers = %v", s.Answers)
	}
	for k, v := range want {
		if s.Answers[k] != v {
			t.Fatalf("answers[%s] = %q, want %q", k, s.Answers[k], v)
		}
	}
	if !strings.Contains(replies[0].Text, "Корпоративный сайт на CMS") {
		t.Fatalf("offer = %q", replies[0].Text)
	}

	send(t, e, 42, "", "Нет")
	if s := load(t, store, 42); s.Stage != statex.StageDone {
		t.Fatalf("stage = %q, want done", s.Stage)
	}
	if len(sink.leads) != 0 {
		t.Fatalf("no lead expected, got %+v", sink.leads)
	}
}

func TestHandleScenarioLeadCaptured(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	gw := &fakeGateway{rec: contractx.Recommendation{Text: "Лендинг"}}
	sink := &fakeSink{}
	e := newEngine(t, store, gw, sink)

	for _, text := range []string{"Нужен сайт", "До 100,000 руб", "В течение месяца", "Качество"} {
		send(t, e, 42, "", text)
	}
	replies := send(t, e, 42, "", "+7 900 000 00 00")

	if s := load(t, store, 42); s.Stage != statex.StageDone {
		t.Fatalf("stage = %q, want done", s.Stage)
	}
	if len(sink.leads) != 1 {
		t.Fatalf("leads = %d, want 1", len(sink.leads))
	}
	lead := sink.leads[0]
	if lead.Contact != "+7 900 000 00 00" || lead.Intent != "Нужен сайт" || lead.ChatID != 42 {
		t.Fatalf("lead = %+v", lead)
	}
	if lead.Notes != "Лендинг" || lead.Status != contractx.LeadStatusNew || !lead.Timestamp.Equal(fixedNow) {
		t.Fatalf("lead = %+v", lead)
	}
	if !strings.Contains(replies[0].Text, "сохранен") {
		t.Fatalf("ack = %q", replies[0].Text)
	}
}

func TestHandleFirstMessageIsImplicitStart(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	replies := send(t, e, 5, "", "Здравствуйте")
	if len(replies) != 1 || !strings.HasPrefix(replies[0].Text, "👋 Привет!") {
		t.Fatalf("replies = %+v", replies)
	}
	s := load(t, store, 5)
	if s.Stage != statex.StageQualifying || len(s.Answers) != 0 {
		t.Fatalf("session = %+v", s)
	}
}

func TestHandleResetMidQualifying(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	send(t, e, 42, contractx.CommandStart, "")
	send(t, e, 42, "", "Мобильное приложение")

	replies := send(t, e, 42, contractx.CommandReset, "")
	if len(replies) != 2 {
		t.Fatalf("reset replies = %+v", replies)
	}
	s := load(t, store, 42)
	if s.Stage != statex.StageQualifying || len(s.Answers) != 0 || s.LastRecommendation != "" {
		t.Fatalf("after reset: %+v", s)
	}
}

func TestHandleStartResumesProgress(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	send(t, e, 42, contractx.CommandStart, "")
	send(t, e, 42, "", "Автоматизация")
	send(t, e, 42, "", "Свыше 500,000 руб")

	replies := send(t, e, 42, contractx.CommandStart, "")
	if len(replies) != 1 || !strings.HasPrefix(replies[0].Text, "👋 С возвращением! Когда бы") {
		t.Fatalf("resume = %+v", replies)
	}
	if s := load(t, store, 42); len(s.Answers) != 2 || s.Stage != statex.StageQualifying {
		t.Fatalf("resume must keep answers: %+v", s)
	}
}

func TestHandleDoneTwiceRegreets(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	done := statex.NewSession(42, fixedNow)
	done.Stage = statex.StageDone
	done.Answers[statex.AnswerIntent] = "Нужен сайт"
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	for i := 0; i < 2; i++ {
		if err := store.Save(context.Background(), done); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		replies := send(t, e, 42, "", "Привет")
		if len(replies) != 1 || !strings.HasPrefix(replies[0].Text, "👋 Привет!") {
			t.Fatalf("attempt %d: replies = %+v", i, replies)
		}
		s := load(t, store, 42)
		if s.Stage != statex.StageQualifying || len(s.Answers) != 0 {
			t.Fatalf("attempt %d: session = %+v", i, s)
		}
	}
}

func TestHandleGatewayFallbackStillAdvances(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	gw := &fakeGateway{rec: contractx.Recommendation{Text: "Сервис недоступен", Fallback: true}}
	e := newEngine(t, store, gw, &fakeSink{})

	for _, text := range []string{"Нужен сайт", "До 100,000 руб", "В течение месяца"} {
		send(t, e, 42, "", text)
	}
	replies := send(t, e, 42, "", "Качество")

	if s := load(t, store, 42); s.Stage != statex.StageCollectingContact {
		t.Fatalf("stage = %q, want collecting_contact", s.Stage)
	}
	if !strings.HasPrefix(replies[0].Text, "Сервис недоступен") {
		t.Fatalf("reply = %q", replies[0].Text)
	}
}

func TestHandleSinkFailureStillAcknowledges(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{rec: contractx.Recommendation{Text: "CRM"}}, &fakeSink{fail: true})

	for _, text := range []string{"Автоматизация", "До 100,000 руб", "1-2 месяца", "Качество"} {
		send(t, e, 42, "", text)
	}
	replies := send(t, e, 42, "", "@client")

	if len(replies) != 1 || !strings.HasPrefix(replies[0].Text, "✅ Спасибо! Ваш контакт получен.") {
		t.Fatalf("ack = %+v", replies)
	}
	if s := load(t, store, 42); s.Stage != statex.StageDone {
		t.Fatalf("stage = %q, want done", s.Stage)
	}
}

func TestHandleIgnoresBlankText(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	replies, err := e.Handle(context.Background(), Inbound{ChatID: 42, Text: "   "})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(replies) != 0 {
		t.Fatalf("replies = %+v, want none", replies)
	}
	if store.Len() != 0 {
		t.Fatal("blank text must not create a session")
	}
}

func TestHandleStoreFailurePropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("store unavailable")
	store := failingStore{Store: statex.NewMemoryStore(), saveErr: saveErr}
	e := newEngine(t, store, &fakeGateway{}, &fakeSink{})

	if _, err := e.Handle(context.Background(), Inbound{ChatID: 42, Text: "hi"}); err == nil {
		t.Fatal("expected error when the session cannot be saved")
	}
}

func TestHandleSerializesSameChat(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	gw := &fakeGateway{rec: contractx.Recommendation{Text: "Лендинг"}, delay: 100 * time.Millisecond}
	e := newEngine(t, store, gw, &fakeSink{})

	for _, text := range []string{"Нужен сайт", "До 100,000 руб", "В течение месяца"} {
		send(t, e, 42, "", text)
	}

	// the priority answer blocks in the gateway while a contact arrives
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.Handle(context.Background(), Inbound{ChatID: 42, Text: "Качество"}); err != nil {
			t.Errorf("Handle() error = %v", err)
		}
	}()
	time.Sleep(30 * time.Millisecond)
	send(t, e, 42, "", "нет")
	wg.Wait()

	s := load(t, store, 42)
	if s.Stage != statex.StageDone {
		t.Fatalf("stage = %q, want done after ordered turns", s.Stage)
	}
	if s.Answers[statex.AnswerPriority] != "Качество" {
		t.Fatalf("priority = %q", s.Answers[statex.AnswerPriority])
	}
	if s.LastRecommendation != "Лендинг" {
		t.Fatalf("recommendation lost: %+v", s)
	}
}

func TestHandleDistinctChatsInParallel(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	gw := &fakeGateway{rec: contractx.Recommendation{Text: "ok"}}
	sink := &fakeSink{}
	e := newEngine(t, store, gw, sink)

	var wg sync.WaitGroup
	for id := int64(1); id <= 16; id++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for _, text := range []string{"Нужен сайт", "До 100,000 руб", "1-2 месяца", "Качество", "@user"} {
				if _, err := e.Handle(context.Background(), Inbound{ChatID: chatID, Text: text}); err != nil {
					t.Errorf("Handle() error = %v", err)
				}
			}
		}(id)
	}
	wg.Wait()

	if len(sink.leads) != 16 {
		t.Fatalf("leads = %d, want 16", len(sink.leads))
	}
	if gw.calls != 16 {
		t.Fatalf("gateway calls = %d, want 16", gw.calls)
	}
}

func TestAskBypassesSession(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	e := newEngine(t, store, &fakeGateway{answer: "ответ: "}, &fakeSink{})

	reply := e.Ask(context.Background(), "  сколько стоит?  ")
	if reply.Text != "ответ: сколько стоит?" {
		t.Fatalf("Ask() = %q", reply.Text)
	}
	if store.Len() != 0 {
		t.Fatal("Ask() must not create a session")
	}
}
