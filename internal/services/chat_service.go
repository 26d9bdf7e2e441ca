package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/repositories/memory"
	"github.com/yoockh/slife/internal/retrieval"
	"github.com/yoockh/slife/internal/utils"
)

const DefaultSessionID = "usuario_padrao"

type ChatService interface {
	Chat(ctx context.Context, sessionID, message string) (string, error)
	History(ctx context.Context, sessionID string) (*models.SessionRecord, error)
}

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, p retrieval.Params) ([]models.ScoredDocument, error)
}

type ChatOptions struct {
	Retrieval        retrieval.Params
	DefaultSessionID string
}

type chatService struct {
	sessions memory.SessionRepository
	rewriter QueryRewriter
	index    Searcher
	composer AnswerComposer
	opts     ChatOptions
	log      *logrus.Logger
}

func NewChatService(sessions memory.SessionRepository, rewriter QueryRewriter, index Searcher, composer AnswerComposer, opts ChatOptions, log *logrus.Logger) ChatService {
	if opts.DefaultSessionID == "" {
		opts.DefaultSessionID = DefaultSessionID
	}
	return &chatService{
		sessions: sessions,
		rewriter: rewriter,
		index:    index,
		composer: composer,
		opts:     opts,
		log:      log,
	}
}

// Chat runs one exchange: rewrite, retrieve, compose, then record both turns.
// Exchanges of the same session are serialized; a failed exchange leaves
// history untouched.
func (s *chatService) Chat(ctx context.Context, sessionID, message string) (string, error) {
	const op = "ChatService.Chat"

	if strings.TrimSpace(message) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "message is required", nil)
	}
	sessionID = s.sessionID(sessionID)
	start := time.Now()

	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		return "", utils.Classify(op, "gave up waiting for session", err)
	}
	defer unlock()

	history, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	query, err := s.rewriter.Rewrite(ctx, history, message)
	if err != nil {
		return "", s.fail(op, sessionID, "rewrite", err)
	}

	docs, err := s.index.Search(ctx, query, s.opts.Retrieval)
	if err != nil {
		return "", s.fail(op, sessionID, "retrieve", err)
	}

	answer, err := s.composer.Compose(ctx, docs, history, message)
	if err != nil {
		return "", s.fail(op, sessionID, "compose", err)
	}

	if err := s.sessions.Append(ctx, sessionID,
		models.Turn{Role: models.RoleHuman, Text: message},
		models.Turn{Role: models.RoleAssistant, Text: answer},
	); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to record exchange", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"history":    len(history),
		"rewritten":  query != message,
		"documents":  len(docs),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("chat exchange completed")

	return answer, nil
}

func (s *chatService) History(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	const op = "ChatService.History"

	rec, err := s.sessions.Get(ctx, s.sessionID(sessionID))
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	return rec, nil
}

func (s *chatService) sessionID(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return s.opts.DefaultSessionID
	}
	return id
}

func (s *chatService) fail(op, sessionID, stage string, err error) error {
	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"stage":      stage,
	}).WithError(err).Error("chat exchange failed")
	return utils.Classify(op, "chat exchange failed at "+stage, err)
}

type unavailableChatService struct {
	cause error
}

// NewUnavailableChatService answers every call with NOT_INITIALIZED. Used when
// startup could not build the index.
func NewUnavailableChatService(cause error) ChatService {
	return &unavailableChatService{cause: cause}
}

func (s *unavailableChatService) Chat(context.Context, string, string) (string, error) {
	return "", utils.E(utils.CodeNotInitialized, "ChatService.Chat", "chat service not initialized", s.cause)
}

func (s *unavailableChatService) History(context.Context, string) (*models.SessionRecord, error) {
	return nil, utils.E(utils.CodeNotInitialized, "ChatService.History", "chat service not initialized", s.cause)
}
