package todo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS todos (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL CHECK (title <> ''),
		completed  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore is a Gateway over a todos table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	// 数据访问层封装
	return &PostgresStore{db: db}
}

// Migrate creates the todos table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, postgresSchema)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]Todo, error) {
	// 按创建顺序查询全部 todo
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, completed
		FROM todos
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var todo Todo
		if err := rows.Scan(&todo.ID, &todo.Title, &todo.Completed); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, completed
		FROM todos
		WHERE id = $1
	`, id)
	return scanTodo(row)
}

func (s *PostgresStore) Insert(ctx context.Context, todo Todo) (Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO todos (id, title, completed)
		VALUES ($1, $2, $3)
		RETURNING id, title, completed
	`, uuid.NewString(), todo.Title, todo.Completed)
	return scanTodo(row)
}

func (s *PostgresStore) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (Todo, error) {
	// 部分更新：未提供的字段由 COALESCE 保留原值
	row := s.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = COALESCE($1, title),
			completed = COALESCE($2, completed),
			updated_at = NOW()
		WHERE id = $3
		RETURNING id, title, completed
	`, nullableString(patch.Title), nullableBool(patch.Completed), id)
	return scanTodo(row)
}

func (s *PostgresStore) FindByIDAndDelete(ctx context.Context, id string) (Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM todos
		WHERE id = $1
		RETURNING id, title, completed
	`, id)
	return scanTodo(row)
}

func scanTodo(row *sql.Row) (Todo, error) {
	var todo Todo
	if err := row.Scan(&todo.ID, &todo.Title, &todo.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, err
	}
	return todo, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullableBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}
