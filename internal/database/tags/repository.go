// Package tags provides database operations for tag management.
//
// This package implements the TagStore interface defined in internal/http/tags.go.
//
//	var _ http.TagStore = (*Repository)(nil)
package tags

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/videoanalyzer/internal/database"
	"github.com/mrlokans/videoanalyzer/internal/entities"
)

// Update describes a partial tag update. Nil fields are left unchanged;
// SetColor with a nil Color clears the color.
type Update struct {
	Name     *string
	SetColor bool
	Color    *string
}

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all tags ordered by name, each with its video count.
func (r *Repository) List(ctx context.Context) ([]entities.TagWithCount, error) {
	var tags []entities.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		TagID uint
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.VideoTag{}).
		Select("tag_id, COUNT(*) AS total").
		Group("tag_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byTag := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byTag[c.TagID] = c.Total
	}

	result := make([]entities.TagWithCount, len(tags))
	for i, tag := range tags {
		result[i] = entities.TagWithCount{Tag: tag, Count: entities.TagCount{Videos: byTag[tag.ID]}}
	}
	return result, nil
}

// GetByID retrieves a tag by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

// Create creates a new tag. Names are unique.
func (r *Repository) Create(ctx context.Context, name string, color *string) (*entities.Tag, error) {
	tag := &entities.Tag{Name: name, Color: color}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("tag %q: %w", name, database.ErrDuplicate)
		}
		return nil, err
	}
	return tag, nil
}

// Update applies a partial update and returns the stored tag.
func (r *Repository) Update(ctx context.Context, id uint, update Update) (*entities.Tag, error) {
	tag, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.SetColor {
		changes["color"] = update.Color
	}
	if len(changes) == 0 {
		return tag, nil
	}

	if err := r.db.WithContext(ctx).Model(tag).Updates(changes).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("tag %d: %w", id, database.ErrDuplicate)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a tag and all its video assignments.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&entities.VideoTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Tag{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// AssignToVideo assigns tags to a video. Tags already assigned are skipped.
// Returns ErrNotFound when the video or any of the tags does not exist.
func (r *Repository) AssignToVideo(ctx context.Context, videoID uint, tagIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var videos int64
		if err := tx.Model(&entities.VideoAnalysis{}).Where("id = ?", videoID).Count(&videos).Error; err != nil {
			return err
		}
		if videos == 0 {
			return fmt.Errorf("video %d: %w", videoID, database.ErrNotFound)
		}

		unique := dedupe(tagIDs)
		if len(unique) == 0 {
			return nil
		}

		var found int64
		if err := tx.Model(&entities.Tag{}).Where("id IN ?", unique).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(unique)) {
			return fmt.Errorf("tags %v: %w", unique, database.ErrNotFound)
		}

		links := make([]entities.VideoTag, len(unique))
		for i, tagID := range unique {
			links[i] = entities.VideoTag{VideoAnalysisID: videoID, TagID: tagID}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

// RemoveFromVideo removes one tag from a video. Removing an absent assignment is not an error.
func (r *Repository) RemoveFromVideo(ctx context.Context, videoID, tagID uint) error {
	return r.db.WithContext(ctx).
		Where("video_analysis_id = ? AND tag_id = ?", videoID, tagID).
		Delete(&entities.VideoTag{}).Error
}

// TagsForVideo returns the tags assigned to a video, ordered by name.
func (r *Repository) TagsForVideo(ctx context.Context, videoID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN video_tags ON video_tags.tag_id = tags.id").
		Where("video_tags.video_analysis_id = ?", videoID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.ErrNotFound
	}
	return err
}
