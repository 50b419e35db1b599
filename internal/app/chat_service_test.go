package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"admissions-advisor/internal/ai"
	"admissions-advisor/internal/model"
	"admissions-advisor/internal/repository"
)

type recordingGenerator struct {
	reply       string
	err         error
	calls       int
	lastQuery   string
	lastHistory []ai.Turn
}

func (g *recordingGenerator) Generate(ctx context.Context, query string, history []ai.Turn) (string, error) {
	_ = ctx
	g.calls++
	g.lastQuery = query
	// copy to avoid mutations
	g.lastHistory = append([]ai.Turn(nil), history...)
	return g.reply, g.err
}

type cannedSmallTalk struct {
	reply string
}

func (s *cannedSmallTalk) Respond(query string) string {
	_ = query
	return s.reply
}

var testDBSeq atomic.Int64

// openTestDB returns a fresh named in-memory database per call so tests do
// not observe each other's rows.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Staff{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gen ReplyGenerator, talk SmallTalk, window int) *ChatService {
	t.Helper()
	return NewChatService(
		repository.NewSessionRepository(db),
		repository.NewMessageRepository(db),
		gen, talk, nil, window,
	)
}

func TestSendMessage_PersistsUserAndAssistant(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "<p>Our CS department admits 120 students.</p>"}
	svc := newTestService(t, db, gen, nil, 20)

	reply, err := svc.SendMessage(context.Background(), "svc-tok-persist", "How many CS seats?")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply != gen.reply {
		t.Fatalf("unexpected reply: %q", reply)
	}

	session, err := repository.NewSessionRepository(db).GetByToken("svc-tok-persist")
	if err != nil || session == nil {
		t.Fatalf("expected session created, got %+v err=%v", session, err)
	}
	turns, err := repository.NewMessageRepository(db).ListBySessionID(session.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != model.RoleUser || turns[0].Content != "How many CS seats?" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != model.RoleAssistant || turns[1].Content != gen.reply {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}
}

func TestSendMessage_EmptyMessageWritesNothing(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "unused"}
	svc := newTestService(t, db, gen, nil, 20)

	if _, err := svc.SendMessage(context.Background(), "svc-tok-empty", "   \n\t "); !errors.Is(err, ErrMessageEmpty) {
		t.Fatalf("expected ErrMessageEmpty, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run on empty input, ran %d times", gen.calls)
	}

	session, err := repository.NewSessionRepository(db).GetByToken("svc-tok-empty")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session != nil {
		t.Fatalf("expected no session created, got %+v", session)
	}
}

func TestSendMessage_GeneratorFailureKeepsUserTurn(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{err: errors.New("upstream timeout")}
	svc := newTestService(t, db, gen, nil, 20)

	_, err := svc.SendMessage(context.Background(), "svc-tok-genfail", "What is the tuition fee?")
	if !errors.Is(err, ErrGenerator) {
		t.Fatalf("expected ErrGenerator, got %v", err)
	}

	session, err := repository.NewSessionRepository(db).GetByToken("svc-tok-genfail")
	if err != nil || session == nil {
		t.Fatalf("expected session created, got %+v err=%v", session, err)
	}
	turns, err := repository.NewMessageRepository(db).ListBySessionID(session.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 1 || turns[0].Role != model.RoleUser {
		t.Fatalf("expected only the user turn to survive, got %+v", turns)
	}
}

func TestSendMessage_SmallTalkSkipsGenerator(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "unused"}
	talk := &cannedSmallTalk{reply: "<h4>Hello!</h4><p>How can I help?</p>"}
	svc := newTestService(t, db, gen, talk, 20)

	reply, err := svc.SendMessage(context.Background(), "svc-tok-talk", "hello")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply != talk.reply {
		t.Fatalf("expected canned reply, got %q", reply)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run for small talk, ran %d times", gen.calls)
	}

	session, _ := repository.NewSessionRepository(db).GetByToken("svc-tok-talk")
	turns, err := repository.NewMessageRepository(db).ListBySessionID(session.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("small-talk turns are still persisted, got %d", len(turns))
	}
}

func TestSendMessage_HistoryWindowExcludesCurrentTurn(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "<p>ok</p>"}
	svc := newTestService(t, db, gen, nil, 3)

	sessions := repository.NewSessionRepository(db)
	messages := repository.NewMessageRepository(db)
	session, err := sessions.GetOrCreateByToken("svc-tok-window")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, content := range []string{"s1", "s2", "s3", "s4", "s5"} {
		if err := messages.Create(&model.ChatMessage{
			SessionID: session.ID,
			Role:      model.RoleUser,
			Content:   content,
		}); err != nil {
			t.Fatalf("seed %q: %v", content, err)
		}
	}

	if _, err := svc.SendMessage(context.Background(), "svc-tok-window", "new question"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	if gen.lastQuery != "new question" {
		t.Fatalf("unexpected query: %q", gen.lastQuery)
	}
	if len(gen.lastHistory) != 3 {
		t.Fatalf("expected 3 context turns, got %d", len(gen.lastHistory))
	}
	// context is what was stored before this turn, newest last
	if gen.lastHistory[2].Content != "s5" {
		t.Fatalf("expected newest context turn s5, got %q", gen.lastHistory[2].Content)
	}
	for _, turn := range gen.lastHistory {
		if turn.Content == "new question" {
			t.Fatal("current turn must not appear in its own context")
		}
	}
}

func TestSendMessage_CleansGeneratedMarkup(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "```html\n<b>Answer</b>\n```"}
	svc := newTestService(t, db, gen, nil, 20)

	reply, err := svc.SendMessage(context.Background(), "svc-tok-clean", "Tell me about dorms")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply != "<b>Answer</b>" {
		t.Fatalf("expected cleaned markup, got %q", reply)
	}
}

func TestSendMessage_EmptyReplyFallsBack(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "   "}
	svc := newTestService(t, db, gen, nil, 20)

	reply, err := svc.SendMessage(context.Background(), "svc-tok-fallback", "Something obscure")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply != fallbackHTML {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestSendMessage_SetsTitleFromFirstMessageOnly(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "<p>ok</p>"}
	svc := newTestService(t, db, gen, nil, 20)

	if _, err := svc.SendMessage(context.Background(), "svc-tok-title", "What majors do you offer?"); err != nil {
		t.Fatalf("first message: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), "svc-tok-title", "And the tuition?"); err != nil {
		t.Fatalf("second message: %v", err)
	}

	session, err := repository.NewSessionRepository(db).GetByToken("svc-tok-title")
	if err != nil || session == nil {
		t.Fatalf("get session: %+v err=%v", session, err)
	}
	if session.Title != "What majors do you offer?" {
		t.Fatalf("unexpected title: %q", session.Title)
	}
}

func TestGetHistory_UnknownTokenIsEmpty(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db, &recordingGenerator{}, nil, 20)

	history, err := svc.GetHistory(context.Background(), "svc-tok-no-such")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}
}

func TestClearChat_RemovesEverythingAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	gen := &recordingGenerator{reply: "<p>ok</p>"}
	svc := newTestService(t, db, gen, nil, 20)

	for _, q := range []string{"q1", "q2"} {
		if _, err := svc.SendMessage(context.Background(), "svc-tok-clear", q); err != nil {
			t.Fatalf("send %q: %v", q, err)
		}
	}

	if err := svc.ClearChat(context.Background(), "svc-tok-clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	history, err := svc.GetHistory(context.Background(), "svc-tok-clear")
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(history))
	}

	// clearing an already-cleared or never-seen session is a no-op
	if err := svc.ClearChat(context.Background(), "svc-tok-clear"); err != nil {
		t.Fatalf("repeat clear: %v", err)
	}
	if err := svc.ClearChat(context.Background(), "svc-tok-never"); err != nil {
		t.Fatalf("clear unknown token: %v", err)
	}
}
