package media

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/rmql/internal/config"
	"github.com/pders01/rmql/internal/debuglog"
)

// Launcher opens character portraits and web links in external programs.
type Launcher struct {
	imageViewer   string
	browser       string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	l := &Launcher{
		defaultOpener: cfg.Media.DefaultOpener,
		registry:      registry,
		detector:      detector,
	}
	if l.defaultOpener == "" {
		l.defaultOpener = detector.GetDefaultOpener()
	}

	players := cfg.Media.ForPlatform(runtime.GOOS)
	l.imageViewer = findCommand(players.Image...)
	l.browser = findCommand(players.Web...)
	if l.imageViewer == "" {
		l.imageViewer = l.defaultOpener
	}
	if l.browser == "" {
		l.browser = l.defaultOpener
	}
	return l
}

// Open starts the viewer for url without waiting for it to exit.
func (l *Launcher) Open(url string) error {
	t := l.detector.DetectType(url)

	var player string
	switch t {
	case TypeImage:
		player = l.imageViewer
	case TypeWeb:
		player = l.browser
	default:
		return fmt.Errorf("cannot open %q: not a URL", url)
	}
	if player == "" {
		return fmt.Errorf("no %s viewer found", t)
	}

	cmd, err := l.registry.Command(player, t, url)
	if err != nil {
		cmd = exec.Command(player, url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", player, err)
	}
	debuglog.Debugf("opened %s with %s", url, player)

	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
