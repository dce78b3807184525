package rickmorty

import (
	"fmt"
	"strings"
)

type Character struct {
	ID       string
	Name     string
	Status   string
	Species  string
	Type     string
	Gender   string
	Image    string
	Origin   string
	Location string
	Episodes int
}

// Key identifies the character across pages.
func (c Character) Key() string { return "character:" + c.ID }

// Title is the list label.
func (c Character) Title() string { return c.Name }

// Description is the one-line list subtitle.
func (c Character) Description() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Status, c.Species, c.Location} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}

type Location struct {
	ID        string
	Name      string
	Type      string
	Dimension string
	Residents int
}

func (l Location) Key() string { return "location:" + l.ID }

func (l Location) Title() string { return l.Name }

func (l Location) Description() string {
	switch {
	case l.Type != "" && l.Dimension != "":
		return fmt.Sprintf("%s · %s", l.Type, l.Dimension)
	case l.Type != "":
		return l.Type
	default:
		return l.Dimension
	}
}
