package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS comments (
	id     INTEGER PRIMARY KEY,
	author TEXT,
	text   TEXT
)`

// Store реализует интерфейс Storage поверх SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// New открывает (или создает) базу по указанному пути.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", storage.ErrUnreadable, path, err)
	}
	// Одно соединение - один писатель: Append не пересекаются
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", storage.ErrUnreadable, path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", storage.ErrUnwritable, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Comment, error) {
	comments, err := listComments(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
	}
	return comments, nil
}

func (s *Store) Append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error) {
	comments, err := s.append(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}
	return comments, nil
}

func (s *Store) append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := sq.Select("COALESCE(MAX(id), 0)").From("comments").ToSql()
	if err != nil {
		return nil, err
	}
	var lastID int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&lastID); err != nil {
		return nil, fmt.Errorf("reading last id: %w", err)
	}

	comment := in.Build(storage.NextID(lastID, s.now()))
	query, args, err = sq.Insert("comments").
		Columns("id", "author", "text").
		Values(comment.ID, nullString(comment.Author), nullString(comment.Text)).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	comments, err := listComments(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return comments, nil
}

func (s *Store) Close() error { return s.db.Close() }

func listComments(ctx context.Context, q queryer) ([]domain.Comment, error) {
	query, args, err := sq.Select("id", "author", "text").From("comments").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var (
			c            domain.Comment
			author, text sql.NullString
		)
		if err := rows.Scan(&c.ID, &author, &text); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		c.Author = stringPtr(author)
		c.Text = stringPtr(text)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
