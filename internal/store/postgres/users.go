// internal/store/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"inventory-monitor/internal/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// ListActiveUsers returns every active user with their role and permission
// sets.
func (s *UserStore) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, roles, permissions, active
		FROM users
		WHERE active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			u     models.User
			phone sql.NullString
		)
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &phone,
			pq.Array(&u.Roles), pq.Array(&u.Permissions), &u.Active)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Phone = phone.String
		users = append(users, u)
	}
	return users, rows.Err()
}
