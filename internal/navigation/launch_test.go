package navigation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchURL(t *testing.T) {
	p := newTestPolicy(t)
	const index = "https://ciphernotes.com/index.html"

	tests := []struct {
		name     string
		incoming string
		want     string
	}{
		{
			name: "no deep link",
			want: index,
		},
		{
			name:     "path and query",
			incoming: "https://ciphernotes.com/notes/42?tab=edit",
			want:     index + "?initialPath=%2Fnotes%2F42%3Ftab%3Dedit",
		},
		{
			name:     "empty path becomes root",
			incoming: "https://ciphernotes.com",
			want:     index + "?initialPath=%2F",
		},
		{
			name:     "fragment",
			incoming: "https://ciphernotes.com/notes#section-2",
			want:     index + "?initialPath=%2Fnotes%23section-2",
		},
		{
			name:     "empty query is dropped",
			incoming: "https://ciphernotes.com/notes?",
			want:     index + "?initialPath=%2Fnotes",
		},
		{
			name:     "already encoded path is encoded again",
			incoming: "https://ciphernotes.com/notes/a%20b",
			want:     index + "?initialPath=%2Fnotes%2Fa%2520b",
		},
		{
			name:     "unreserved marks survive",
			incoming: "https://ciphernotes.com/x/(draft)!*~'",
			want:     index + "?initialPath=%2Fx%2F(draft)!*~'",
		},
		{
			name:     "http is not a deep link",
			incoming: "http://ciphernotes.com/notes/42",
			want:     index,
		},
		{
			name:     "custom scheme is not a deep link",
			incoming: "ciphernotes://notes/42",
			want:     index,
		},
		{
			name:     "garbage",
			incoming: "https://[::1",
			want:     index,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.LaunchURL(tt.incoming))
		})
	}
}

func TestLaunchURLRoundTrips(t *testing.T) {
	p := newTestPolicy(t)

	launch, err := url.Parse(p.LaunchURL("https://ciphernotes.com/notes/42?tab=edit&x=1#top"))
	require.NoError(t, err)
	assert.Equal(t, "/notes/42?tab=edit&x=1#top", launch.Query().Get(InitialPathParam))
}

func TestCustomIndex(t *testing.T) {
	p := newTestPolicy(t, WithIndex("/app.html"))
	assert.Equal(t, "https://ciphernotes.com/app.html", p.LaunchURL(""))
}

func TestEncodeComponent(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abcXYZ019": "abcXYZ019",
		"_-!.~'()*": "_-!.~'()*",
		"a b":       "a%20b",
		"/?#&=+":    "%2F%3F%23%26%3D%2B",
		"é":         "%C3%A9",
		"100%":      "100%25",
	}
	for in, want := range tests {
		assert.Equal(t, want, EncodeComponent(in), in)
	}
}
