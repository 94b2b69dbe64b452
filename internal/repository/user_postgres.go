package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jaekwang-park/task-sync/internal/model"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUser(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, id, email string) (model.User, error) {
	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, name, age, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, id, email)
	return scanUser(row)
}

func (r *PostgresUserRepository) Get(ctx context.Context, id string) (model.User, error) {
	query := `
		SELECT id, email, name, age, created_at, updated_at
		FROM users
		WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) SaveProfile(ctx context.Context, user model.User) (model.User, error) {
	query := `
		UPDATE users
		SET name = $1, age = $2, updated_at = now()
		WHERE id = $3
		RETURNING id, email, name, age, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, user.Name, user.Age, user.ID)
	return scanUser(row)
}

func scanUser(row scannable) (model.User, error) {
	var u model.User
	var age sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &age, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	return u, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
