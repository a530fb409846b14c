package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/shopverse/internal/model"
    "github.com/iliyamo/shopverse/internal/utils"
)

func (s *MySQLStore) CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error) {
    id, err := utils.NewSessionID()
    if err != nil {
        return model.Session{}, err
    }
    now := s.now()
    sess := model.Session{ID: id, UserID: userID, ExpiresAt: now.Add(ttl), CreatedAt: now}
    const q = `INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`
    if _, err := s.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt); err != nil {
        return model.Session{}, err
    }
    return sess, nil
}

// GetSession deletes an expired row on sight.
func (s *MySQLStore) GetSession(ctx context.Context, id string) (model.Session, bool, error) {
    const q = `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`
    var sess model.Session
    err := s.db.QueryRowContext(ctx, q, id).Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Session{}, false, nil
    }
    if err != nil {
        return model.Session{}, false, err
    }
    if sess.Expired(s.now()) {
        if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
            return model.Session{}, false, err
        }
        return model.Session{}, false, nil
    }
    return sess, true, nil
}

func (s *MySQLStore) DeleteSession(ctx context.Context, id string) (bool, error) {
    res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

func (s *MySQLStore) SweepExpiredSessions(ctx context.Context) (int, error) {
    res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now())
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}
