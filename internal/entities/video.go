package entities

import (
	"encoding/json"
	"time"
)

// VideoAnalysis is one analyzed YouTube video. JSON names are camelCase
// because the browser front end reads them directly.
type VideoAnalysis struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	URL        string          `gorm:"size:2048" json:"url"`
	VideoID    string          `gorm:"uniqueIndex;size:32" json:"videoId"`
	Title      string          `gorm:"size:512" json:"title"`
	Channel    string          `gorm:"size:256" json:"channel"`
	Metadata   json.RawMessage `gorm:"type:text" json:"metadata,omitempty"` // raw YouTube API item
	Transcript *Transcript     `gorm:"foreignKey:VideoAnalysisID" json:"transcript"`
	Tags       []VideoTag      `gorm:"foreignKey:VideoAnalysisID" json:"tags"`
	CreatedAt  time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Transcript struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	VideoAnalysisID uint      `gorm:"uniqueIndex" json:"videoAnalysisId"`
	Content         string    `gorm:"type:text" json:"content,omitempty"`
	Language        string    `gorm:"size:16" json:"language"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Color     *string   `gorm:"size:7" json:"color"` // #RRGGBB or null
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VideoTag links a tag to a video. The pair is the primary key, so a tag is
// assigned to a video at most once.
type VideoTag struct {
	VideoAnalysisID uint      `gorm:"primaryKey" json:"videoAnalysisId"`
	TagID           uint      `gorm:"primaryKey;index" json:"tagId"`
	Tag             Tag       `gorm:"foreignKey:TagID" json:"tag"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TagCount carries the number of videos a tag is assigned to.
type TagCount struct {
	Videos int64 `json:"videos"`
}

// TagWithCount is a tag as listed in the tag overview.
type TagWithCount struct {
	Tag
	Count TagCount `json:"_count"`
}
