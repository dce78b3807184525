package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/rmql/internal/debuglog"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition describes how to invoke one viewer.
type PlayerDefinition struct {
	Description string      `toml:"description"`
	Platforms   []string    `toml:"platforms"`
	Image       *TypeInvoke `toml:"image,omitempty"`
	Web         *TypeInvoke `toml:"web,omitempty"`
}

type TypeInvoke struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry loads the embedded definitions and merges user
// overrides from overridePaths (defaults to ~/.config/rmql/players.toml).
func NewPlayerRegistry(overridePaths ...string) (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(playersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}
	if config.Players == nil {
		config.Players = make(map[string]PlayerDefinition)
	}

	r := &PlayerRegistry{players: config.Players, goos: runtime.GOOS}

	if len(overridePaths) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			overridePaths = []string{filepath.Join(home, ".config", "rmql", "players.toml")}
		}
	}
	for _, path := range overridePaths {
		r.merge(path)
	}
	return r, nil
}

func (r *PlayerRegistry) merge(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var user PlayersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		debuglog.Warnf("ignoring %s: %v", path, err)
		return
	}
	for name, def := range user.Players {
		r.players[name] = def
	}
}

// Command builds the invocation for player. Unknown players are run with
// the URL as their only argument.
func (r *PlayerRegistry) Command(player string, t Type, url string) (*exec.Cmd, error) {
	def, ok := r.players[player]
	if !ok {
		return exec.Command(player, url), nil
	}

	if !contains(def.Platforms, r.goos) {
		return nil, fmt.Errorf("%s not supported on %s", player, r.goos)
	}

	var invoke *TypeInvoke
	switch t {
	case TypeImage:
		invoke = def.Image
	case TypeWeb:
		invoke = def.Web
	}
	if invoke == nil {
		return nil, fmt.Errorf("%s cannot open %s URLs", player, t)
	}

	args := append(append([]string{}, r.args(invoke)...), url)
	return exec.Command(player, args...), nil
}

func (r *PlayerRegistry) args(invoke *TypeInvoke) []string {
	switch r.goos {
	case "darwin":
		if len(invoke.ArgsDarwin) > 0 {
			return invoke.ArgsDarwin
		}
	case "linux":
		if len(invoke.ArgsLinux) > 0 {
			return invoke.ArgsLinux
		}
	case "windows":
		if len(invoke.ArgsWindows) > 0 {
			return invoke.ArgsWindows
		}
	}
	return invoke.Args
}
