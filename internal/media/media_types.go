package media

import (
	_ "embed"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeImage Type = iota
	TypeWeb
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeWeb:
		return "web"
	default:
		return "unknown"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Image     TypeConfig                `toml:"image"`
	Web       TypeConfig                `toml:"web"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if _, err := toml.Decode(string(mediaTypesTOML), &config); err != nil {
		return nil, err
	}
	return &TypeDetector{config: &config}, nil
}

// DetectType classifies url by extension first, then by URL pattern. Any
// other http(s) URL is a web page.
func (d *TypeDetector) DetectType(url string) Type {
	lower := strings.ToLower(strings.TrimSpace(url))
	isURL := strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")

	path := lower
	if i := strings.IndexAny(path, "?#"); i != -1 {
		path = path[:i]
	}
	var ext string
	if i := strings.LastIndex(path, "."); i != -1 && !strings.Contains(path[i:], "/") {
		ext = path[i+1:]
	}

	if ext != "" && contains(d.config.Image.Extensions, ext) {
		return TypeImage
	}
	if isURL && matchesPattern(lower, d.config.Image.URLPatterns) {
		return TypeImage
	}
	if isURL {
		return TypeWeb
	}
	return TypeUnknown
}

func (d *TypeDetector) GetDefaultOpener() string {
	if pc, ok := d.config.Platforms[runtime.GOOS]; ok {
		return pc.DefaultOpener
	}
	if fallback, ok := d.config.Platforms["fallback"]; ok {
		return fallback.DefaultOpener
	}
	return "open"
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func matchesPattern(url string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}
