package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/paperpilot/paperpilot/internal/database"
	"github.com/paperpilot/paperpilot/types"
)

// projectRecord is the relational row shape. References and configuration
// are stored as JSON text so the schema stays identical across sqlite,
// postgres, and mysql.
type projectRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	Topic            string `gorm:"size:500;not null"`
	Status           string `gorm:"size:50;index"`
	LastError        string
	ConfigJSON       string `gorm:"column:config_json;type:text"`
	ReferencesJSON   string `gorm:"column:references_json;type:text"`
	Draft            string `gorm:"type:text"`
	ReviewedDraft    string `gorm:"type:text"`
	ProgressResearch int
	ProgressWriting  int
	ProgressReview   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (projectRecord) TableName() string { return "projects" }

// GormStore implements ProjectStore over a relational database.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// GormConfig selects the relational backend.
type GormConfig struct {
	Driver string              `yaml:"driver" json:"driver"` // "sqlite", "postgres", "mysql"
	DSN    string              `yaml:"dsn" json:"dsn"`
	Pool   database.PoolConfig `yaml:"pool" json:"pool"`
}

// NewGormStore opens the configured database, applies pool settings, and
// migrates the schema.
func NewGormStore(cfg GormConfig, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:paperpilot.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, types.NewErrorf(types.ErrConfiguration, "unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := database.Configure(db, cfg.Pool, logger); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&projectRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "store"), zap.String("driver", cfg.Driver)),
	}, nil
}

func (s *GormStore) Create(ctx context.Context, project *types.Project) error {
	record, err := toRecord(project)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*types.Project, error) {
	var record projectRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(&record)
}

func (s *GormStore) Update(ctx context.Context, project *types.Project) error {
	record, err := toRecord(project)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&projectRecord{}).
		Where("id = ?", record.ID).
		Select("*").Omit("id", "created_at").
		Updates(record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(project.ID)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&projectRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]*types.Project, error) {
	var records []projectRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	projects := make([]*types.Project, 0, len(records))
	for i := range records {
		project, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}

func toRecord(project *types.Project) (*projectRecord, error) {
	configJSON, err := json.Marshal(project.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	refsJSON, err := json.Marshal(project.References)
	if err != nil {
		return nil, fmt.Errorf("failed to encode references: %w", err)
	}
	return &projectRecord{
		ID:               project.ID,
		Topic:            project.Topic,
		Status:           string(project.Status),
		LastError:        project.LastError,
		ConfigJSON:       string(configJSON),
		ReferencesJSON:   string(refsJSON),
		Draft:            project.Draft,
		ReviewedDraft:    project.ReviewedDraft,
		ProgressResearch: project.Progress.Research,
		ProgressWriting:  project.Progress.Writing,
		ProgressReview:   project.Progress.Review,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}, nil
}

func fromRecord(record *projectRecord) (*types.Project, error) {
	project := &types.Project{
		ID:            record.ID,
		Topic:         record.Topic,
		Status:        types.Status(record.Status),
		LastError:     record.LastError,
		Draft:         record.Draft,
		ReviewedDraft: record.ReviewedDraft,
		Progress: types.Progress{
			Research: record.ProgressResearch,
			Writing:  record.ProgressWriting,
			Review:   record.ProgressReview,
		},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(record.ConfigJSON), &project.Config); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	if record.ReferencesJSON != "" {
		if err := json.Unmarshal([]byte(record.ReferencesJSON), &project.References); err != nil {
			return nil, fmt.Errorf("failed to decode references: %w", err)
		}
	}
	return project, nil
}
