package storage

import (
	"time"
)

type Kind string

const (
	KindCharacter Kind = "character"
	KindLocation  Kind = "location"
)

// Recent is an entry the user opened from a list.
type Recent struct {
	Key      string    `json:"key"`
	Kind     Kind      `json:"kind"`
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Details  string    `json:"details"`
	Image    string    `json:"image,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
	Opens    int       `json:"opens"`
}

// QueryHistory holds the filters submitted to one list, newest first.
type QueryHistory struct {
	List      string    `json:"list"`
	Queries   []string  `json:"queries"`
	UpdatedAt time.Time `json:"updated_at"`
}
