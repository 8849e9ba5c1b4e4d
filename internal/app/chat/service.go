package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"lostfound/internal/app/store"
	"lostfound/internal/app/user"
	"lostfound/internal/pkg/errs"
	"lostfound/internal/pkg/logx"
)

// notificationPreviewRunes bounds the message text shown in a push notification.
const notificationPreviewRunes = 120

// Service implements the chat operations shared by the REST handlers and the hub.
type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService builds a Service. notifier may be nil.
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logx.Component("chat"),
	}
}

// StartChat returns the id of the chat between caller and partnerID, creating it when
// the pair has none yet.
func (s *Service) StartChat(ctx context.Context, caller *user.User, partnerID string) (string, *errs.CustomError) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return "", errs.NewError(errs.ErrPartnerRequired)
	}
	if partnerID == caller.ID {
		return "", errs.NewError(errs.ErrChatWithSelf)
	}

	partner, err := s.repo.UserByID(ctx, partnerID)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return "", errs.NewError(errs.ErrInvalidPartnerID)
	case errors.Is(err, store.ErrNotFound):
		return "", errs.NewError(errs.ErrUserNotFound)
	case err != nil:
		return "", errs.Internal(err)
	}

	existing, err := s.repo.FindChatBetween(ctx, caller.ID, partner.ID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", errs.Internal(err)
	}

	c := &Chat{
		Participants: []Participant{
			{UserID: caller.ID, Username: caller.Username},
			{UserID: partner.ID, Username: partner.Username},
		},
	}
	err = s.repo.CreateChat(ctx, c)
	if errors.Is(err, store.ErrDuplicate) {
		// a concurrent request created the chat between our lookup and insert
		existing, err = s.repo.FindChatBetween(ctx, caller.ID, partner.ID)
		if err != nil {
			return "", errs.Internal(err)
		}
		return existing.ID, nil
	}
	if err != nil {
		return "", errs.Internal(err)
	}

	s.logger.Info().Str("chat_id", c.ID).Str("user_id", caller.ID).Str("partner_id", partner.ID).Msg("Chat created.")
	return c.ID, nil
}

// ListChats returns the caller's chats, most recent activity first. Chats without
// messages come last.
func (s *Service) ListChats(ctx context.Context, caller *user.User) ([]Summary, *errs.CustomError) {
	chats, err := s.repo.ChatsForUser(ctx, caller.ID)
	if err != nil {
		return nil, errs.Internal(err)
	}

	summaries := make([]Summary, 0, len(chats))
	for i := range chats {
		c := &chats[i]
		partner := c.Partner(caller.ID)
		if partner == nil {
			continue
		}
		summaries = append(summaries, Summary{
			ChatID:      c.ID,
			WithUser:    partner.Username,
			WithUserID:  partner.UserID,
			LastMessage: c.LastMessage,
			UnreadCount: c.UnreadCount(caller.ID),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Timestamp.After(b.Timestamp)
	})

	return summaries, nil
}

// Info returns the participants of a chat the caller takes part in.
func (s *Service) Info(ctx context.Context, caller *user.User, chatID string) (*Info, *errs.CustomError) {
	c, customErr := s.Authorize(ctx, caller.ID, chatID)
	if customErr != nil {
		return nil, customErr
	}

	return &Info{
		ChatID:       c.ID,
		Participants: c.Participants,
		Partner:      c.Partner(caller.ID),
	}, nil
}

// Messages returns the messages of a chat oldest first and marks them read by the
// caller. A malformed or unknown chat yields no messages rather than an error.
func (s *Service) Messages(ctx context.Context, caller *user.User, chatID string) ([]Message, *errs.CustomError) {
	c, err := s.repo.ChatByID(ctx, chatID)
	if store.IsNotFound(err) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, errs.Internal(err)
	}
	if !c.HasParticipant(caller.ID) {
		return nil, errs.NewError(errs.ErrChatForbidden)
	}

	messages := c.Messages
	if messages == nil {
		messages = []Message{}
	}
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].Timestamp.Before(messages[j].Timestamp) })

	if len(messages) > 0 {
		if err := s.repo.MarkRead(ctx, c.ID, caller.ID); err != nil {
			s.logger.Warn().Err(err).Str("chat_id", c.ID).Msg("Failed to mark messages read.")
		}
	}

	return messages, nil
}

// MarkRead marks every message of a chat read by the caller.
func (s *Service) MarkRead(ctx context.Context, caller *user.User, chatID string) *errs.CustomError {
	c, customErr := s.Authorize(ctx, caller.ID, chatID)
	if customErr != nil {
		return customErr
	}

	if err := s.repo.MarkRead(ctx, c.ID, caller.ID); err != nil {
		return errs.Internal(err)
	}
	return nil
}

// Authorize loads a chat and checks that userID takes part in it.
func (s *Service) Authorize(ctx context.Context, userID, chatID string) (*Chat, *errs.CustomError) {
	if strings.TrimSpace(chatID) == "" {
		return nil, errs.NewError(errs.ErrInvalidChatID)
	}

	c, err := s.repo.ChatByID(ctx, chatID)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return nil, errs.NewError(errs.ErrInvalidChatID)
	case errors.Is(err, store.ErrNotFound):
		return nil, errs.NewError(errs.ErrChatNotFound)
	case err != nil:
		return nil, errs.Internal(err)
	}

	if !c.HasParticipant(userID) {
		return nil, errs.NewError(errs.ErrChatForbidden)
	}
	return c, nil
}

// SendMessage validates and stores a message from sender, then notifies the other
// participant. The sender always counts as having read the message.
func (s *Service) SendMessage(ctx context.Context, sender Participant, chatID, text string) (*Message, *errs.CustomError) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(text) > MaxContentBytes {
		return nil, errs.NewError(errs.ErrMessageContentTooLong)
	}

	c, customErr := s.Authorize(ctx, sender.UserID, chatID)
	if customErr != nil {
		return nil, customErr
	}

	m := &Message{
		SenderID:  sender.UserID,
		Text:      text,
		Timestamp: s.now(),
		ReadBy:    []string{sender.UserID},
	}
	if err := s.repo.AppendMessage(ctx, c.ID, m); err != nil {
		return nil, errs.Internal(err)
	}

	if s.notifier != nil {
		if partner := c.Partner(sender.UserID); partner != nil {
			s.notifier.NotifyUser(partner.UserID, "New message from "+sender.Username, preview(text), "/chat/"+c.ID)
		}
	}

	return m, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= notificationPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:notificationPreviewRunes]) + "…"
}
