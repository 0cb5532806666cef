package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

var (
	// ErrVideoNotFound is returned when the API knows no video with the id.
	ErrVideoNotFound = errors.New("video not found")
	// ErrMissingAPIKey is returned when no YouTube API key is configured.
	ErrMissingAPIKey = errors.New("YouTube API key is not configured")
)

// Thumbnail is one rendition of a video thumbnail.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Metadata is the subset of a video resource the application uses.
// Raw keeps the full API item for storage.
type Metadata struct {
	Title       string               `json:"title"`
	Channel     string               `json:"channelTitle"`
	Description string               `json:"description"`
	PublishedAt time.Time            `json:"publishedAt"`
	Duration    int                  `json:"duration"` // seconds
	ViewCount   int64                `json:"viewCount"`
	LikeCount   int64                `json:"likeCount"`
	Thumbnails  map[string]Thumbnail `json:"thumbnails"`
	Raw         json.RawMessage      `json:"raw,omitempty"`
}

// MetadataClient calls the YouTube Data API v3.
type MetadataClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// MetadataOption configures a MetadataClient.
type MetadataOption func(*MetadataClient)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(baseURL string) MetadataOption {
	return func(c *MetadataClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) MetadataOption {
	return func(c *MetadataClient) {
		c.httpClient = client
	}
}

// NewMetadataClient creates a YouTube Data API client.
func NewMetadataClient(apiKey string, opts ...MetadataOption) *MetadataClient {
	c := &MetadataClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultAPIBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetVideo fetches snippet, content details and statistics of a video.
func (c *MetadataClient) GetVideo(ctx context.Context, videoID string) (*Metadata, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("id", videoID)
	query.Set("part", "snippet,contentDetails,statistics")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video metadata: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", videoID, ErrVideoNotFound)
	}

	return parseVideo(body.Items[0])
}

type videoResource struct {
	Snippet struct {
		Title        string               `json:"title"`
		ChannelTitle string               `json:"channelTitle"`
		Description  string               `json:"description"`
		PublishedAt  time.Time            `json:"publishedAt"`
		Thumbnails   map[string]Thumbnail `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
		LikeCount string `json:"likeCount"`
	} `json:"statistics"`
}

func parseVideo(raw json.RawMessage) (*Metadata, error) {
	var v videoResource
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode video: %w", err)
	}

	return &Metadata{
		Title:       v.Snippet.Title,
		Channel:     v.Snippet.ChannelTitle,
		Description: v.Snippet.Description,
		PublishedAt: v.Snippet.PublishedAt,
		Duration:    ParseISODuration(v.ContentDetails.Duration),
		ViewCount:   parseCount(v.Statistics.ViewCount),
		LikeCount:   parseCount(v.Statistics.LikeCount),
		Thumbnails:  v.Snippet.Thumbnails,
		Raw:         raw,
	}, nil
}

// parseCount reads the API's string-encoded counters; hidden counters are 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
