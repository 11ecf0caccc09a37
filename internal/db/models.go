package db

import "time"

// LastTrack is the single cached row. Data holds the serialized track.
type LastTrack struct {
	ID        string
	Data      []byte
	UpdatedAt time.Time
}
