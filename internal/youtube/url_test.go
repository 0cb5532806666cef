package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with params", "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"v path", "https://www.youtube.com/v/dQw4w9WgXcQ#frag", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVideoID_Invalid(t *testing.T) {
	for _, url := range []string{"", "https://vimeo.com/123", "not a url", "https://www.youtube.com/channel/abc"} {
		_, err := ExtractVideoID(url)
		assert.ErrorIs(t, err, ErrInvalidURL, url)
	}
}

func TestParseISODuration(t *testing.T) {
	assert.Equal(t, 3723, ParseISODuration("PT1H2M3S"))
	assert.Equal(t, 212, ParseISODuration("PT3M32S"))
	assert.Equal(t, 45, ParseISODuration("PT45S"))
	assert.Equal(t, 7200, ParseISODuration("PT2H"))
	assert.Equal(t, 90000, ParseISODuration("P1DT1H"))
	assert.Equal(t, 0, ParseISODuration("P0D"))
	assert.Equal(t, 0, ParseISODuration(""))
	assert.Equal(t, 0, ParseISODuration("garbage"))
}
