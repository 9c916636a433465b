package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher hands a media URL to an external player
type Launcher struct {
	cfg    PlayerConfig
	logger *slog.Logger

	lookPath func(file string) (string, error)
	start    func(name string, args ...string) error
}

// knownPlayers are tried in order when no command is configured. An
// "app:" entry is a macOS application bundle.
var knownPlayers = map[string][]string{
	"darwin":  {"app:IINA", "mpv", "vlc", "app:VLC"},
	"linux":   {"mpv", "celluloid", "haruna", "vlc"},
	"windows": {"vlc", "mpv"},
}

// systemOpener is the platform's "open with default app" command
var systemOpener = map[string][]string{
	"darwin":  {"open"},
	"windows": {"cmd", "/c", "start", ""},
	"linux":   {"xdg-open"},
}

func NewLauncher(cfg PlayerConfig, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		cfg:      cfg,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Launch starts the configured player. Without one it tries the known
// players for this OS and finally the system opener.
func (l *Launcher) Launch(url string) error {
	if url == "" {
		return errors.New("video has no media URL")
	}

	if cmd := l.cfg.Command; cmd != "" {
		args := append(append([]string(nil), l.cfg.Args...), url)
		l.logger.Info("launching player", "command", cmd, "args", args)
		if err := l.start(cmd, args...); err != nil {
			return fmt.Errorf("launch %s: %w", cmd, err)
		}
		return nil
	}

	for _, p := range playersFor(runtime.GOOS) {
		name, args, err := l.resolve(p)
		if err == nil {
			err = l.start(name, append(args, url)...)
		}
		if err != nil {
			l.logger.Debug("player unavailable", "player", p, "error", err)
			continue
		}
		l.logger.Info("launched detected player", "player", p)
		return nil
	}

	opener := systemOpener[runtime.GOOS]
	if opener == nil {
		opener = systemOpener["linux"]
	}
	l.logger.Info("no known player found, using system opener", "opener", opener[0])
	return l.start(opener[0], append(opener[1:len(opener):len(opener)], url)...)
}

func playersFor(goos string) []string {
	if ps, ok := knownPlayers[goos]; ok {
		return ps
	}
	return knownPlayers["linux"]
}

// resolve turns a player entry into a command and leading args
func (l *Launcher) resolve(player string) (string, []string, error) {
	if bundle, ok := strings.CutPrefix(player, "app:"); ok {
		if runtime.GOOS != "darwin" {
			return "", nil, errors.New("app bundles need macOS")
		}
		return "open", []string{"-a", bundle}, nil
	}
	if _, err := l.lookPath(player); err != nil {
		return "", nil, err
	}
	return player, nil, nil
}
