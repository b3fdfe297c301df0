package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// AppendMessages stores messages in one transaction, in order.
func (s *Store) AppendMessages(ctx context.Context, messages ...*core.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	now := s.now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range messages {
			if m.SessionID == "" {
				return fmt.Errorf("%w: chat message without session id", storage.ErrInvalidQuery)
			}
			var sources sql.NullString
			if len(m.Sources) > 0 {
				data, err := json.Marshal(m.Sources)
				if err != nil {
					return fmt.Errorf("marshalling sources: %w", err)
				}
				sources = sql.NullString{String: string(data), Valid: true}
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}

			res, err := tx.ExecContext(ctx, `
				INSERT INTO chat_messages (session_id, role, content, sources, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, m.SessionID, m.Role, m.Content, sources, formatTime(m.CreatedAt))
			if err != nil {
				return fmt.Errorf("saving chat message: %w", err)
			}
			if m.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Messages returns the newest limit messages of a session in chronological
// order. A non-positive limit returns the whole session.
func (s *Store) Messages(ctx context.Context, sessionID string, limit int) ([]*core.ChatMessage, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, sources, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*core.ChatMessage
	for rows.Next() {
		var (
			m       core.ChatMessage
			sources sql.NullString
			created string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &sources, &created); err != nil {
			return nil, err
		}
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &m.Sources); err != nil {
				return nil, fmt.Errorf("unmarshalling sources: %w", err)
			}
		}
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(messages)
	return messages, nil
}
