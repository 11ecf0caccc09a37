package spotify

import (
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-now-playing/internal/track"
)

// PlaybackState is the raw currently-playing response. The library type lacks
// currently_playing_type, which decides whether the widget can render.
type PlaybackState struct {
	spotify.CurrentlyPlaying
	CurrentlyPlayingType string `json:"currently_playing_type"`
}

// Normalize converts a raw playback state into a Track.
// Artists are joined by ", "; the link is the item's Spotify URL.
func Normalize(state PlaybackState) track.Track {
	t := track.Track{
		IsPlaying: state.Playing,
		Type:      state.CurrentlyPlayingType,
	}

	item := state.Item
	if item == nil {
		return t
	}

	names := make([]string, len(item.Artists))
	for i, a := range item.Artists {
		names[i] = a.Name
	}

	t.Song = item.Name
	t.Artist = track.JoinArtists(names)
	t.Href = item.ExternalURLs["spotify"]
	return t
}
