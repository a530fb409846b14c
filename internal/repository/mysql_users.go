package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/shopverse/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

func (s *MySQLStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
    now := s.now()
    u.ID = newID()
    u.Email = emailKey(u.Email)
    u.CreatedAt, u.UpdatedAt = now, now
    const q = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
    _, err := s.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
    if err != nil {
        if isDuplicateKey(err) {
            return model.User{}, ErrEmailExists
        }
        return model.User{}, err
    }
    return u, nil
}

func (s *MySQLStore) GetUserByEmail(ctx context.Context, email string) (model.User, bool, error) {
    const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
    return s.getUser(ctx, q, emailKey(email))
}

func (s *MySQLStore) GetUserByID(ctx context.Context, id string) (model.User, bool, error) {
    const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
    return s.getUser(ctx, q, id)
}

func (s *MySQLStore) getUser(ctx context.Context, q string, arg any) (model.User, bool, error) {
    u, err := scanUser(s.db.QueryRowContext(ctx, q, arg))
    if errors.Is(err, sql.ErrNoRows) {
        return model.User{}, false, nil
    }
    if err != nil {
        return model.User{}, false, err
    }
    return u, true, nil
}

func (s *MySQLStore) CountUsers(ctx context.Context) (int, error) {
    var n int
    err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
    return n, err
}
