package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lostfound/internal/app/chat"
	"lostfound/internal/app/store"
)

type chatRow struct {
	id           string
	createdAt    time.Time
	lastText     *string
	lastSenderID *string
	lastAt       *time.Time
}

func (r chatRow) toChat() chat.Chat {
	c := chat.Chat{ID: r.id, CreatedAt: r.createdAt.UTC(), Participants: []chat.Participant{}, Messages: []chat.Message{}}
	if r.lastAt != nil {
		c.LastMessage = &chat.LastMessage{
			Text:      deref(r.lastText),
			SenderID:  deref(r.lastSenderID),
			Timestamp: r.lastAt.UTC(),
		}
	}
	return c
}

const chatColumns = `c.id::text, c.created_at, c.last_text, c.last_sender_id::text, c.last_at`

func (s *Store) FindChatBetween(ctx context.Context, a, b string) (*chat.Chat, error) {
	key, err := pairKey(a, b)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var id string
	if err := s.pool.QueryRow(ctx, `SELECT id::text FROM chats WHERE pair_key = $1`, key).Scan(&id); err != nil {
		return nil, mapError(err)
	}

	return s.ChatByID(ctx, id)
}

// CreateChat relies on the unique pair_key index so that two concurrent starts of the
// same conversation cannot both succeed.
func (s *Store) CreateChat(ctx context.Context, c *chat.Chat) error {
	id := uuid.NewString()

	var key *string
	if len(c.Participants) == 2 {
		k, err := pairKey(c.Participants[0].UserID, c.Participants[1].UserID)
		if err != nil {
			return err
		}
		key = &k
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO chats (id, pair_key) VALUES ($1, $2) RETURNING created_at`, id, key,
		).Scan(&c.CreatedAt); err != nil {
			return err
		}

		for i, p := range c.Participants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO chat_participants (chat_id, user_id, username, position) VALUES ($1, $2, $3, $4)`,
				id, p.UserID, p.Username, i,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}

	c.ID = id
	c.CreatedAt = c.CreatedAt.UTC()
	return nil
}

// pairKey canonicalises both ids so the key matches however the uuids were spelled.
func pairKey(a, b string) (string, error) {
	ua, err := uuid.Parse(a)
	if err != nil {
		return "", store.ErrInvalidID
	}
	ub, err := uuid.Parse(b)
	if err != nil {
		return "", store.ErrInvalidID
	}
	return chat.PairKey(ua.String(), ub.String()), nil
}

func (s *Store) ChatByID(ctx context.Context, id string) (*chat.Chat, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var r chatRow
	err := s.pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1`, id).
		Scan(&r.id, &r.createdAt, &r.lastText, &r.lastSenderID, &r.lastAt)
	if err != nil {
		return nil, mapError(err)
	}

	chats := []chat.Chat{r.toChat()}
	if err := s.loadChatDetails(ctx, chats); err != nil {
		return nil, err
	}
	return &chats[0], nil
}

func (s *Store) ChatsForUser(ctx context.Context, userID string) ([]chat.Chat, error) {
	if checkID(userID) != nil {
		return []chat.Chat{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chats c
		JOIN chat_participants p ON p.chat_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.created_at`, userID)
	if err != nil {
		return nil, mapError(err)
	}

	chats := make([]chat.Chat, 0)
	for rows.Next() {
		var r chatRow
		if err := rows.Scan(&r.id, &r.createdAt, &r.lastText, &r.lastSenderID, &r.lastAt); err != nil {
			rows.Close()
			return nil, err
		}
		chats = append(chats, r.toChat())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadChatDetails(ctx, chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// loadChatDetails fills participants and messages of chats with one query each.
func (s *Store) loadChatDetails(ctx context.Context, chats []chat.Chat) error {
	if len(chats) == 0 {
		return nil
	}

	ids := make([]string, len(chats))
	index := make(map[string]*chat.Chat, len(chats))
	for i := range chats {
		ids[i] = chats[i].ID
		index[chats[i].ID] = &chats[i]
	}

	rows, err := s.pool.Query(ctx, `
		SELECT chat_id::text, user_id::text, username FROM chat_participants
		WHERE chat_id = ANY($1::uuid[])
		ORDER BY chat_id, position`, ids)
	if err != nil {
		return mapError(err)
	}
	for rows.Next() {
		var chatID string
		var p chat.Participant
		if err := rows.Scan(&chatID, &p.UserID, &p.Username); err != nil {
			rows.Close()
			return err
		}
		c := index[chatID]
		c.Participants = append(c.Participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT chat_id::text, id::text, sender_id::text, text, created_at, read_by::text[] FROM messages
		WHERE chat_id = ANY($1::uuid[])
		ORDER BY created_at`, ids)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var chatID string
		var m chat.Message
		if err := rows.Scan(&chatID, &m.ID, &m.SenderID, &m.Text, &m.Timestamp, &m.ReadBy); err != nil {
			return err
		}
		m.Timestamp = m.Timestamp.UTC()
		c := index[chatID]
		c.Messages = append(c.Messages, m)
	}
	return rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, chatID string, m *chat.Message) error {
	if err := checkID(chatID); err != nil {
		return err
	}
	id := uuid.NewString()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE chats SET last_text = $2, last_sender_id = $3, last_at = $4 WHERE id = $1`,
			chatID, m.Text, m.SenderID, m.Timestamp)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO messages (id, chat_id, sender_id, text, read_by, created_at)
			VALUES ($1, $2, $3, $4, $5::uuid[], $6)`,
			id, chatID, m.SenderID, m.Text, m.ReadBy, m.Timestamp)
		return err
	})
	if err != nil {
		return mapError(err)
	}

	m.ID = id
	return nil
}

func (s *Store) MarkRead(ctx context.Context, chatID, userID string) error {
	if err := checkID(chatID, userID); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE messages SET read_by = array_append(read_by, $2::uuid)
		WHERE chat_id = $1 AND NOT ($2::uuid = ANY(read_by))`, chatID, userID)
	return mapError(err)
}
