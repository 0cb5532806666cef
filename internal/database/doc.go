// Package database provides the data access layer for the application.
//
// The connection setup and migrations live in database.go; each domain has
// its own sub-package with a Repository type:
//
//	database/
//	├── database.go  # Connection setup, migrations, gorm logging
//	├── videos/      # Video analyses and their transcripts
//	└── tags/        # Tags and video-tag assignments
//
// Usage:
//
//	db, err := database.NewDatabase("./videoanalyzer.db", logger)
//	videosRepo := videos.NewRepository(db.DB)
//	tagsRepo := tags.NewRepository(db.DB)
//
// Repositories translate gorm.ErrRecordNotFound into database.ErrNotFound and
// unique constraint failures into database.ErrDuplicate.
package database
