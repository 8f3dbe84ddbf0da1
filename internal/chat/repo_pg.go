package chat

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateSession inserts a new session.
func (r *PGRepo) CreateSession(ctx context.Context, session Session) error {
	const query = `
INSERT INTO chat_sessions (id, user_id, title, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, session.ID, session.UserID, session.Title, session.CreatedAt)
	return err
}

// GetSession fetches a session owned by userId.
func (r *PGRepo) GetSession(ctx context.Context, userId, sessionID string) (Session, error) {
	const query = `
SELECT id, user_id, title, created_at
FROM chat_sessions
WHERE id = $1 AND user_id = $2`
	var s Session
	err := r.DB.QueryRowContext(ctx, query, sessionID, userId).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// ListSessions returns the caller's sessions newest first.
func (r *PGRepo) ListSessions(ctx context.Context, userId string, limit int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	const query = `
SELECT id, user_id, title, created_at
FROM chat_sessions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userId, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session; messages go with it through the
// foreign key cascade.
func (r *PGRepo) DeleteSession(ctx context.Context, userId, sessionID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`, sessionID, userId)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage stores a message at the end of its session.
func (r *PGRepo) AppendMessage(ctx context.Context, msg Message) error {
	const query = `
INSERT INTO chat_messages (id, session_id, user_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.SessionID, msg.UserID, string(msg.Role), msg.Content, msg.CreatedAt)
	return err
}

// ListMessages returns messages oldest first, keeping the last limit when
// limit is positive.
func (r *PGRepo) ListMessages(ctx context.Context, userId, sessionID string, limit int) ([]Message, error) {
	if _, err := r.GetSession(ctx, userId, sessionID); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		const query = `
SELECT id, session_id, user_id, role, content, created_at FROM (
    SELECT id, session_id, user_id, role, content, created_at, seq
    FROM chat_messages
    WHERE session_id = $1 AND user_id = $2
    ORDER BY seq DESC
    LIMIT $3
) recent
ORDER BY seq ASC`
		rows, err = r.DB.QueryContext(ctx, query, sessionID, userId, limit)
	} else {
		const query = `
SELECT id, session_id, user_id, role, content, created_at
FROM chat_messages
WHERE session_id = $1 AND user_id = $2
ORDER BY seq ASC`
		rows, err = r.DB.QueryContext(ctx, query, sessionID, userId)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		var role string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
