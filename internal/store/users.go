package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"personnel/internal/models"
)

// Default administrator credentials seeded on first start, matching the
// desktop deployment this replaces. The password should be rotated through
// the change-password endpoint.
const (
	defaultAdminPassword = "admin123"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// EnsureDefaultAdmin seeds the administrator account when the users table is
// empty of it.
func (s *PersonnelStore) EnsureDefaultAdmin(ctx context.Context) error {
	var existing string
	err := s.conn.QueryRowContext(ctx,
		"SELECT username FROM users WHERE username = ?", models.DefaultUsername).Scan(&existing)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	return s.AddUser(ctx, models.DefaultUsername, defaultAdminPassword)
}

// Authenticate verifies a username/password pair against the stored hash.
func (s *PersonnelStore) Authenticate(ctx context.Context, username, password string) error {
	username = models.NormaliseUsername(username)
	var hash string
	err := s.conn.QueryRowContext(ctx,
		"SELECT password FROM users WHERE username = ?", username).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// AddUser creates a user with a bcrypt password hash.
func (s *PersonnelStore) AddUser(ctx context.Context, username, password string) error {
	username = models.NormaliseUsername(username)
	var existing string
	err := s.conn.QueryRowContext(ctx,
		"SELECT username FROM users WHERE username = ?", username).Scan(&existing)
	if err == nil {
		return ErrUserExists
	}
	if err != sql.ErrNoRows {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		"INSERT INTO users (username, password) VALUES (?, ?)", username, string(hash))
	return err
}

// ChangePassword replaces the stored hash for an existing user, inserting the
// account when absent.
func (s *PersonnelStore) ChangePassword(ctx context.Context, username, newPassword string) error {
	username = models.NormaliseUsername(username)
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	result, err := s.conn.ExecContext(ctx,
		"UPDATE users SET password = ? WHERE username = ?", string(hash), username)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = s.conn.ExecContext(ctx,
			"INSERT INTO users (username, password) VALUES (?, ?)", username, string(hash))
	}
	return err
}

// DeleteUser removes a user together with its permission row.
func (s *PersonnelStore) DeleteUser(ctx context.Context, username string) error {
	username = models.NormaliseUsername(username)
	if IsAdmin(username) {
		return errors.New("the administrator account cannot be deleted")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_permissions WHERE username = ?", username); err != nil {
		tx.Rollback()
		return err
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		tx.Rollback()
		return ErrUserNotFound
	}
	return tx.Commit()
}

// ListUsers returns every account except the administrator.
func (s *PersonnelStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT username FROM users WHERE username != ? ORDER BY username", models.DefaultUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		users = append(users, username)
	}
	return users, rows.Err()
}

// SetPermissions stores the per-table access flags for a user, replacing any
// previous row.
func (s *PersonnelStore) SetPermissions(ctx context.Context, username string, perms models.Permissions) error {
	username = models.NormaliseUsername(username)
	_, err := s.conn.ExecContext(ctx, `
		REPLACE INTO user_permissions (username, base_info, rewards, family, resume)
		VALUES (?, ?, ?, ?, ?)`,
		username, boolInt(perms.BaseInfo), boolInt(perms.Rewards), boolInt(perms.Family), boolInt(perms.Resume))
	if err != nil {
		return fmt.Errorf("set permissions for %s: %w", username, err)
	}
	return nil
}

// Permissions returns the stored access flags for a user. The administrator
// always holds every permission; users without a row hold none.
func (s *PersonnelStore) Permissions(ctx context.Context, username string) (models.Permissions, error) {
	username = models.NormaliseUsername(username)
	if IsAdmin(username) {
		return models.AllPermissions(), nil
	}
	var baseInfo, rewards, family, resume int
	err := s.conn.QueryRowContext(ctx, `
		SELECT base_info, rewards, family, resume
		FROM user_permissions WHERE username = ?`, username).
		Scan(&baseInfo, &rewards, &family, &resume)
	if err == sql.ErrNoRows {
		return models.Permissions{}, nil
	}
	if err != nil {
		return models.Permissions{}, err
	}
	return models.Permissions{
		BaseInfo: baseInfo != 0,
		Rewards:  rewards != 0,
		Family:   family != 0,
		Resume:   resume != 0,
	}, nil
}

// IsAdmin reports whether the username names the administrator account.
func IsAdmin(username string) bool {
	return models.NormaliseUsername(username) == models.DefaultUsername
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
