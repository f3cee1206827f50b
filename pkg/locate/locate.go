package locate

import (
	"log/slog"
	"path/filepath"
)

// DefaultMaxHops bounds the upward walk. It is also the only guard against
// symlink loops.
const DefaultMaxHops = 5

// Paths is the result of a discovery walk. Empty strings mean "not found".
type Paths struct {
	Bot        string     `json:"bot" yaml:"bot"`
	Model      string     `json:"model" yaml:"model"`
	Napcat     string     `json:"napcat" yaml:"napcat"`
	BotRoot    string     `json:"bot_root" yaml:"bot_root"`
	Convention Convention `json:"convention,omitempty" yaml:"convention,omitempty"`
	// NapcatConvention records which layout supplied the adapter config.
	NapcatConvention Convention `json:"napcat_convention,omitempty" yaml:"napcat_convention,omitempty"`
	SearchRoot       string     `json:"search_root" yaml:"search_root"`
}

// Locator runs the discovery walk.
type Locator struct {
	Prober  Prober
	MaxHops int
	Logger  *slog.Logger
}

// New returns a Locator over the real filesystem with the default hop limit.
func New(logger *slog.Logger) *Locator {
	return &Locator{Prober: OSProber{}, MaxHops: DefaultMaxHops, Logger: logger}
}

// SearchRoot returns the first directory probed for startDir: its
// grandparent. The service is installed two levels below the directory that
// holds the bot folder.
func SearchRoot(startDir string) string {
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}
	return filepath.Dir(filepath.Dir(filepath.Clean(startDir)))
}

// Locate resolves the document paths for startDir.
//
// The primary walk stops at the first level where any convention yields an
// existing bot_config.toml; conventions at that level are tried in
// Enumerate order and the first hit wins. When the standard adapter config
// is missing, a second walk from the same start looks for the legacy
// adapter layout.
func (l *Locator) Locate(startDir string) Paths {
	root := SearchRoot(startDir)
	paths := Paths{SearchRoot: root}

	walkUp(root, l.maxHops(), func(dir string) bool {
		for _, c := range Enumerate(l.prober(), dir) {
			if !l.prober().Exists(c.BotConfig) {
				continue
			}
			paths.Bot = c.BotConfig
			paths.Model = c.ModelConfig
			paths.BotRoot = c.BotRoot
			paths.Convention = c.Convention
			if l.prober().Exists(c.NapcatConfig) {
				paths.Napcat = c.NapcatConfig
				paths.NapcatConvention = c.Convention
			}
			l.logger().Info("bot config found", "path", c.BotConfig, "convention", c.Convention)
			return true
		}
		return false
	})

	if paths.Napcat == "" {
		walkUp(root, l.maxHops(), func(dir string) bool {
			path, ok := LegacyAdapterPath(l.prober(), dir)
			if !ok {
				return false
			}
			paths.Napcat = path
			paths.NapcatConvention = ConventionLegacyAdapter
			l.logger().Info("adapter config found in legacy layout", "path", path)
			return true
		})
	}

	return paths
}

// walkUp calls visit on root and then on each ancestor until visit returns
// true, the filesystem root has been visited, or maxHops levels were tried.
func walkUp(root string, maxHops int, visit func(dir string) bool) {
	dir := root
	for hop := 0; hop < maxHops; hop++ {
		if visit(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (l *Locator) prober() Prober {
	if l.Prober == nil {
		return OSProber{}
	}
	return l.Prober
}

func (l *Locator) maxHops() int {
	if l.MaxHops <= 0 {
		return DefaultMaxHops
	}
	return l.MaxHops
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
