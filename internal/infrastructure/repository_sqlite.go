package infrastructure

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// channelRow is the SQLite row of a channel record
type channelRow struct {
	URL   string `gorm:"primaryKey"`
	Title string
}

// TableName specifies the table name for GORM
func (channelRow) TableName() string {
	return "channels"
}

// videoRow is the SQLite row of a video record
type videoRow struct {
	ChannelURL string `gorm:"primaryKey"`
	VideoID    string `gorm:"primaryKey"`
	Title      string
	Date       string
	URL        string
	Status     string
}

// TableName specifies the table name for GORM
func (videoRow) TableName() string {
	return "videos"
}

// SQLiteStateRepository implements StateRepository using SQLite.
// A save replaces every row inside one transaction.
type SQLiteStateRepository struct {
	db *gorm.DB
}

// NewSQLiteStateRepository creates a new SQLite repository.
// gorm warnings and errors are routed to log.
func NewSQLiteStateRepository(dbPath string, log *zap.Logger) (*SQLiteStateRepository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: zapgorm2.New(log.Named("gorm")).LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrateSchema(db, log); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStateRepository{db: db}, nil
}

// migrateSchema applies the embedded SQL migrations
func migrateSchema(db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	source, err := iofs.New(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case err == nil:
		log.Debug("State database migrated")
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("No state database migration required")
	default:
		return err
	}
	return nil
}

// Load reads every channel and video row back into a state
func (r *SQLiteStateRepository) Load() (domain.State, error) {
	var channels []channelRow
	if err := r.db.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}

	var videos []videoRow
	if err := r.db.Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	state := make(domain.State, len(channels))
	for _, ch := range channels {
		state[ch.URL] = domain.NewChannelRecord(ch.URL, ch.Title)
	}
	for _, v := range videos {
		channel, ok := state[v.ChannelURL]
		if !ok {
			channel = domain.NewChannelRecord(v.ChannelURL, "")
			state[v.ChannelURL] = channel
		}
		channel.Videos[v.VideoID] = &domain.VideoRecord{
			Title:  v.Title,
			Date:   v.Date,
			URL:    v.URL,
			Status: domain.VideoStatus(v.Status),
		}
	}

	return state, nil
}

// Save replaces the stored snapshot in a single transaction
func (r *SQLiteStateRepository) Save(state domain.State) error {
	channels := make([]channelRow, 0, len(state))
	var videos []videoRow
	for url, ch := range state {
		channels = append(channels, channelRow{URL: url, Title: ch.Title})
		for id, v := range ch.Videos {
			videos = append(videos, videoRow{
				ChannelURL: url,
				VideoID:    id,
				Title:      v.Title,
				Date:       v.Date,
				URL:        v.URL,
				Status:     string(v.Status),
			})
		}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM videos").Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM channels").Error; err != nil {
			return err
		}
		if len(channels) > 0 {
			if err := tx.CreateInBatches(channels, 200).Error; err != nil {
				return err
			}
		}
		if len(videos) > 0 {
			if err := tx.CreateInBatches(videos, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database connection
func (r *SQLiteStateRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewStateRepository opens the repository selected by the state configuration
func NewStateRepository(config *domain.StateConfig, log *zap.Logger) (domain.StateRepository, error) {
	switch config.Backend {
	case domain.StateBackendJSON, "":
		return NewJSONStateRepository(config.Path), nil
	case domain.StateBackendSQLite:
		return NewSQLiteStateRepository(config.Path, log)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", config.Backend)
	}
}
