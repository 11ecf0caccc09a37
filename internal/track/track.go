// Package track defines the normalized now-playing record shared by the
// proxy service, the cache stores, and the widget.
package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Playback content types.
const (
	// TypeTrack is the only type the widget renders.
	TypeTrack = "track"

	// TypeSilence marks a response where nothing is playing and no cache is configured.
	TypeSilence = "silence"
)

// MsgNoTrackCached is returned when nothing is playing and the cache is empty.
const MsgNoTrackCached = "No track cached yet"

// ErrEmptyRecord is returned when decoding an empty cache payload.
var ErrEmptyRecord = errors.New("empty track record")

// Track is the user-facing now-playing (or last-playing) record.
// Song, Artist and Href carry no meaning unless Type is TypeTrack.
type Track struct {
	IsPlaying bool   `json:"isPlaying"`
	Type      string `json:"type"`
	Song      string `json:"song,omitempty"`
	Artist    string `json:"artist,omitempty"` // Comma-separated artist names
	Href      string `json:"href,omitempty"`
}

// Message is the neutral payload returned instead of a Track.
type Message struct {
	Message string `json:"message"`
}

// Silence returns the track reported when nothing plays and there is no cache.
func Silence() Track {
	return Track{IsPlaying: false, Type: TypeSilence}
}

// Renderable reports whether the widget should display this track.
func (t Track) Renderable() bool {
	return t.Type == TypeTrack
}

// Label returns the "{song} - {artist}" link text.
func (t Track) Label() string {
	return t.Song + " - " + t.Artist
}

// LastPlayed returns a copy with IsPlaying cleared. Cached tracks are always
// served this way so a stale record never claims to be live.
func (t Track) LastPlayed() Track {
	t.IsPlaying = false
	return t
}

// JoinArtists joins artist names with ", ", skipping blanks.
func JoinArtists(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		kept = append(kept, n)
	}
	return strings.Join(kept, ", ")
}

// Encode serializes a track for the cache record.
func Encode(t Track) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding track: %w", err)
	}
	return data, nil
}

// Decode parses a cache record payload.
func Decode(data []byte) (Track, error) {
	if len(data) == 0 {
		return Track{}, ErrEmptyRecord
	}

	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return Track{}, fmt.Errorf("decoding track: %w", err)
	}
	return t, nil
}
