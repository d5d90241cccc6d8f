package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/service"
)

const maxMessageLength = 500

// ChatUsecase runs the message pipeline: gate, score, persist, broadcast,
// settle the ledger.
type ChatUsecase struct {
	chat        ChatRepository
	sessions    SessionRepository
	identity    IdentityRepository
	analyzer    *service.Analyzer
	reputation  *ReputationUsecase
	moderation  *ModerationUsecase
	publisher   Publisher
	replayLimit int
}

func NewChatUsecase(
	chat ChatRepository,
	sessions SessionRepository,
	identity IdentityRepository,
	analyzer *service.Analyzer,
	reputation *ReputationUsecase,
	moderation *ModerationUsecase,
	publisher Publisher,
	replayLimit int,
) *ChatUsecase {
	return &ChatUsecase{
		chat:        chat,
		sessions:    sessions,
		identity:    identity,
		analyzer:    analyzer,
		reputation:  reputation,
		moderation:  moderation,
		publisher:   publisher,
		replayLimit: replayLimit,
	}
}

// Send delivers a message to a session the author belongs to. The message is
// broadcast once persisted; the reputation settlement that follows is
// best-effort and never blocks delivery.
func (uc *ChatUsecase) Send(ctx context.Context, sessionID, authorID, content string) (domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, domain.InvalidStateError{Reason: "message is empty"}
	}
	if len(content) > maxMessageLength {
		return domain.ChatMessage{}, domain.InvalidStateError{Reason: "message is too long"}
	}

	if err := uc.moderation.MuteGate(ctx, authorID); err != nil {
		return domain.ChatMessage{}, err
	}

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if session.Status == domain.SessionClosed {
		return domain.ChatMessage{}, domain.ErrNotOpen
	}
	member, err := uc.sessions.IsMember(ctx, sessionID, authorID)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if !member {
		return domain.ChatMessage{}, domain.ErrNotMember
	}

	author, err := uc.identity.Get(ctx, authorID)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	assessment := service.Assess(uc.analyzer.Score(content))

	message := domain.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		AuthorID:  authorID,
		Author:    author.Username,
		Content:   content,
		Toxic:     assessment.Toxic,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.chat.Append(ctx, message); err != nil {
		return domain.ChatMessage{}, err
	}

	uc.broadcast(ctx, message)

	// Settle the ledger after the message is already out. A failed write
	// surfaces to the author as an unknown delta, never as a lost message.
	if _, err := uc.reputation.Apply(ctx, authorID, assessment.Delta, assessment.Toxic, assessment.Label); err != nil {
		slog.Warn("failed to settle reputation for message",
			slog.String("error", err.Error()),
			slog.String("message", message.ID),
			slog.String("module", "chat"),
		)
		uc.reputation.PublishUnknown(ctx, authorID)
	}

	return message, nil
}

// History returns the most recent messages in chronological order, for
// replay when a member attaches to the session room.
func (uc *ChatUsecase) History(ctx context.Context, sessionID, requesterID string) ([]domain.ChatMessage, error) {
	member, err := uc.sessions.IsMember(ctx, sessionID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrNotMember
	}
	return uc.chat.Recent(ctx, sessionID, uc.replayLimit)
}

func (uc *ChatUsecase) broadcast(ctx context.Context, message domain.ChatMessage) {
	event, err := squadup.NewEvent(squadup.EventMessage, squadup.SessionChannel(message.SessionID), squadup.MessagePayload{
		ID:        message.ID,
		SessionID: message.SessionID,
		AuthorID:  message.AuthorID,
		Author:    message.Author,
		Content:   message.Content,
		Toxic:     message.Toxic,
		CreatedAt: message.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event.Channel, event); err != nil {
		slog.Warn("failed to publish message",
			slog.String("error", err.Error()),
			slog.String("module", "chat"),
		)
	}
}
