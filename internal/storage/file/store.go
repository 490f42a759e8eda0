package file

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/storage"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed comments.schema.json
var schemaJSON string

var commentsSchema = jsonschema.MustCompileString("comments.schema.json", schemaJSON)

const indent = "    "

// Store реализует интерфейс Storage поверх одного JSON-файла.
// Файл читается целиком на каждый запрос, кэша между запросами нет.
type Store struct {
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// New открывает файловое хранилище. Отсутствующий файл создается с
// пустым массивом; существующий файл должен пройти Check.
func New(path string) (*Store, error) {
	if err := ensureExists(path); err != nil {
		return nil, err
	}
	if err := Check(path); err != nil {
		return nil, err
	}
	return &Store{path: path, now: time.Now}, nil
}

// Check читает файл и проверяет его по JSON-схеме формата хранилища,
// а затем декодирует так же, как это делают List и Append.
func Check(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrUnparseable, path, err)
	}
	if err := commentsSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrUnparseable, path, err)
	}
	// Схема пропускает 1.0 и 1e12 как integer, а int64 их не примет
	if _, err := decode(raw, path); err != nil {
		return err
	}
	return nil
}

func ensureExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readLocked()
}

func (s *Store) Append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	comment := in.Build(storage.NextID(storage.MaxID(comments), s.now()))
	comments = append(comments, comment)

	if err := s.writeLocked(comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) readLocked() ([]domain.Comment, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
	}
	return decode(raw, s.path)
}

func decode(raw []byte, path string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := json.Unmarshal(raw, &comments); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrUnparseable, path, err)
	}
	// "null" тоже распарсится, но массивом не является
	if comments == nil {
		return nil, fmt.Errorf("%w: %s: top-level value is not an array", storage.ErrUnparseable, path)
	}
	return comments, nil
}

// writeLocked пишет во временный файл рядом с хранилищем и переименовывает
// его поверх старого, так что падение посреди записи не портит данные.
func (s *Store) writeLocked(comments []domain.Comment) error {
	data, err := encode(comments)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return cleanup(err)
	}
	return nil
}

// encode сериализует список с отступом в 4 пробела, без HTML-экранирования
// и без завершающего перевода строки.
func encode(comments []domain.Comment) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(comments); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
