package tui

type View int

const (
	ViewCharacters View = iota
	ViewLocations
	ViewCharacterDetail
	ViewLocationDetail
	ViewRecent
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewCharacters:
		return "characters"
	case ViewLocations:
		return "locations"
	case ViewCharacterDetail:
		return "character"
	case ViewLocationDetail:
		return "location"
	case ViewRecent:
		return "recent"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// isDetail reports whether v shows a rendered entity.
func (v View) isDetail() bool {
	return v == ViewCharacterDetail || v == ViewLocationDetail
}
