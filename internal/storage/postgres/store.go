package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", storage.ErrUnreadable, err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Comment{}); err != nil {
		return nil, fmt.Errorf("%w: failed to migrate database: %w", storage.ErrUnwritable, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Comment, error) {
	comments, err := listComments(s.db.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
	}
	return comments, nil
}

func (s *Store) Append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error) {
	var comments []domain.Comment
	// Блокировка таблицы сериализует конкурентные Append (в том числе из
	// разных процессов): MAX(id) и INSERT видят одно и то же состояние.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE comments IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}

		var lastID int64
		if err := tx.Model(&domain.Comment{}).Select("COALESCE(MAX(id), 0)").Scan(&lastID).Error; err != nil {
			return err
		}

		comment := in.Build(storage.NextID(lastID, s.now()))
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		var err error
		comments, err = listComments(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnwritable, err)
	}

	return comments, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ID монотонно растут, поэтому порядок по ID совпадает с порядком добавления
func listComments(db *gorm.DB) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	if err := db.Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
