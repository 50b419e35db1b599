package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"admissions-advisor/internal/ai"
	"admissions-advisor/internal/model"
	"admissions-advisor/internal/pkg/htmlclean"
	"admissions-advisor/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrGenerator       = errors.New("generation service failed")
)

// fallbackHTML is returned when the model yields an empty reply.
const fallbackHTML = `<div class="alert alert-warning"><h4>No information found</h4><p>Sorry, I could not find information related to your question in the current knowledge base. Please try a different admissions question or contact the admissions office directly.</p></div>`

const maxTitleLen = 80

// ReplyGenerator produces an assistant reply for a query given recent turns.
type ReplyGenerator interface {
	Generate(ctx context.Context, query string, history []ai.Turn) (string, error)
}

// SmallTalk answers conversational queries without a generation call; an empty
// string means the query is not conversational.
type SmallTalk interface {
	Respond(query string) string
}

// HistoryCache mirrors the redis-backed cache; all methods are optional
// accelerations, never a source of truth.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type ChatService struct {
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	generator    ReplyGenerator
	smallTalk    SmallTalk
	historyCache HistoryCache
	maxContext   int
}

func NewChatService(
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	generator ReplyGenerator,
	smallTalk SmallTalk,
	historyCache HistoryCache,
	maxContext int,
) *ChatService {
	if maxContext <= 0 {
		maxContext = 20
	}
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		generator:    generator,
		smallTalk:    smallTalk,
		historyCache: historyCache,
		maxContext:   maxContext,
	}
}

// SendMessage runs one chat turn: resolve or create the session for token,
// persist the user turn, obtain a reply, persist it, return it. The user turn
// is written before the generator is called and is never rolled back, so a
// failed generation still leaves history consistent with what was sent. No
// database transaction is held across the generator call.
func (s *ChatService) SendMessage(ctx context.Context, token, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrMessageEmpty
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidInput
	}

	session, err := s.sessionRepo.GetOrCreateByToken(token)
	if err != nil {
		return "", err
	}

	history, err := s.promptHistory(session.ID)
	if err != nil {
		return "", err
	}

	if err := s.append(ctx, session.ID, model.RoleUser, content); err != nil {
		return "", err
	}
	if session.Title == "" {
		_ = s.sessionRepo.UpdateTitle(session.ID, truncateTitle(content))
	}

	reply := ""
	if s.smallTalk != nil {
		reply = s.smallTalk.Respond(content)
	}
	if reply == "" {
		generated, genErr := s.generator.Generate(ctx, content, history)
		if genErr != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerator, genErr)
		}
		reply = htmlclean.Clean(generated)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = fallbackHTML
	}

	if err := s.append(ctx, session.ID, model.RoleAssistant, reply); err != nil {
		return "", err
	}
	return reply, nil
}

// GetHistory returns the full stored history for the caller's session, oldest
// first. An unknown token yields an empty history, not an error: the session
// will be created lazily on the first message.
func (s *ChatService) GetHistory(ctx context.Context, token string) ([]model.ChatMessage, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []model.ChatMessage{}, nil
	}

	if s.historyCache != nil {
		dirty, dirtyErr := s.historyCache.IsDirty(ctx, session.ID)
		if dirtyErr == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, session.ID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(session.ID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, session.ID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, session.ID, messages)
		}
	}
	return messages, nil
}

// ClearChat deletes the caller's session and all its messages. Clearing an
// unknown token or an already-cleared session is a no-op.
func (s *ChatService) ClearChat(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}

	session, err := s.sessionRepo.GetByToken(token)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(session.ID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, session.ID)
	}
	return nil
}

// ListSessions returns sessions by recency for the staff dashboard.
func (s *ChatService) ListSessions(limit int) ([]model.ChatSession, error) {
	return s.sessionRepo.ListRecent(limit)
}

func (s *ChatService) append(ctx context.Context, sessionID uint, role, content string) error {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}

	message := &model.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// promptHistory returns the recent turns fed to the generator as context.
func (s *ChatService) promptHistory(sessionID uint) ([]ai.Turn, error) {
	recent, err := s.messageRepo.ListRecentBySessionID(sessionID, s.maxContext)
	if err != nil {
		return nil, err
	}
	turns := make([]ai.Turn, 0, len(recent))
	for _, item := range recent {
		turns = append(turns, ai.Turn{Role: item.Role, Content: item.Content})
	}
	return turns, nil
}

func truncateTitle(content string) string {
	title := strings.TrimSpace(content)
	if len(title) > maxTitleLen {
		cut := maxTitleLen
		for cut > 0 && title[cut]&0xC0 == 0x80 {
			cut--
		}
		title = title[:cut] + "…"
	}
	return title
}
