// Package videos provides database operations for video analyses and transcripts.
package videos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/entities"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Repository handles all video analysis database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new videos repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores an analysis together with its transcript, if any.
func (r *Repository) Create(ctx context.Context, analysis *entities.VideoAnalysis) error {
	err := r.db.WithContext(ctx).Create(analysis).Error
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("video %s: %w", analysis.VideoID, database.ErrDuplicate)
	}
	return err
}

// GetByID returns an analysis with its transcript and tags.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.VideoAnalysis, error) {
	var analysis entities.VideoAnalysis
	err := r.db.WithContext(ctx).
		Preload("Transcript").
		Preload("Tags.Tag").
		First(&analysis, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &analysis, nil
}

// GetByVideoID returns the analysis of a YouTube video id with its transcript.
func (r *Repository) GetByVideoID(ctx context.Context, videoID string) (*entities.VideoAnalysis, error) {
	var analysis entities.VideoAnalysis
	err := r.db.WithContext(ctx).
		Preload("Transcript").
		Where("video_id = ?", videoID).
		First(&analysis).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &analysis, nil
}

// List returns one page of analyses, newest first. Transcripts are loaded
// without their content.
func (r *Repository) List(ctx context.Context, page, limit int) ([]entities.VideoAnalysis, error) {
	page, limit = normalizePage(page, limit)

	var analyses []entities.VideoAnalysis
	err := r.db.WithContext(ctx).
		Preload("Transcript", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "video_analysis_id", "language", "created_at")
		}).
		Preload("Tags.Tag").
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&analyses).Error
	return analyses, err
}

// Delete removes an analysis with its transcript and tag assignments.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_analysis_id = ?", id).Delete(&entities.VideoTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_analysis_id = ?", id).Delete(&entities.Transcript{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.VideoAnalysis{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// SaveTranscript stores or replaces the transcript of an analysis.
func (r *Repository) SaveTranscript(ctx context.Context, analysisID uint, content, language string) error {
	transcript := &entities.Transcript{
		VideoAnalysisID: analysisID,
		Content:         content,
		Language:        language,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_analysis_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "language"}),
	}).Create(transcript).Error
}

// Count returns the number of stored analyses.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.VideoAnalysis{}).Count(&count).Error
	return count, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.ErrNotFound
	}
	return err
}
