// Package locate finds the MoFox bot's configuration documents and log file
// by walking upward from the companion service's install directory.
//
// The bot is expected to live in a sibling folder of the UI, but several
// folder layouts have been shipped over time. Each layout is a Convention;
// conventions are probed in a fixed priority order at every level of the
// walk, and the first one that yields an existing bot_config.toml wins.
package locate

import (
	"os"
	"path/filepath"
)

// Convention names a known bot folder layout.
type Convention string

const (
	// ConventionDirect is <root>/Bot.
	ConventionDirect Convention = "direct"
	// ConventionNested is <root>/MoFox-Bot/Bot.
	ConventionNested Convention = "nested"
	// ConventionLegacyAdapter is the old adapter layout
	// <root>/MoFox-Bot-false/MoFox-Bot/Adapter/config/config.toml.
	ConventionLegacyAdapter Convention = "legacy-adapter"
)

// Document file names under <bot-root>/config.
const (
	ConfigDirName   = "config"
	BotConfigName   = "bot_config.toml"
	ModelConfigName = "model_config.toml"
)

// napcatRel is the adapter config location relative to the config directory.
var napcatRel = []string{"plugins", "napcat_adapter", "config.toml"} //nolint:gochecknoglobals // fixed layout

// Prober answers existence questions about paths. The production
// implementation is OSProber; tests inject an in-memory tree.
type Prober interface {
	IsDir(path string) bool
	Exists(path string) bool
}

// OSProber probes the real filesystem with os.Stat.
type OSProber struct{}

// IsDir reports whether path is an existing directory.
func (OSProber) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Exists reports whether anything exists at path.
func (OSProber) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// layout maps a folder name found under a search root to the bot root it implies.
type layout struct {
	convention Convention
	folder     string
	inner      string // non-empty when the bot root is a subfolder of folder
}

// layouts is the probe order. Earlier entries win at the same level.
var layouts = []layout{ //nolint:gochecknoglobals // fixed priority table
	{convention: ConventionDirect, folder: "Bot"},
	{convention: ConventionNested, folder: "MoFox-Bot", inner: "Bot"},
}

// Candidate is one layout that matched at a search root: its bot root exists
// as a directory. Whether the documents exist is left to the caller.
type Candidate struct {
	Convention   Convention
	BotRoot      string
	ConfigDir    string
	BotConfig    string
	ModelConfig  string
	NapcatConfig string
}

// Enumerate returns the candidates for root in priority order, skipping every
// layout whose implied bot root is not an existing directory.
func Enumerate(p Prober, root string) []Candidate {
	var out []Candidate
	for _, l := range layouts {
		folder := filepath.Join(root, l.folder)
		if !p.IsDir(folder) {
			continue
		}
		botRoot := folder
		if l.inner != "" {
			botRoot = filepath.Join(folder, l.inner)
			if !p.IsDir(botRoot) {
				continue
			}
		}
		out = append(out, newCandidate(l.convention, botRoot))
	}
	return out
}

func newCandidate(c Convention, botRoot string) Candidate {
	configDir := filepath.Join(botRoot, ConfigDirName)
	return Candidate{
		Convention:   c,
		BotRoot:      botRoot,
		ConfigDir:    configDir,
		BotConfig:    filepath.Join(configDir, BotConfigName),
		ModelConfig:  filepath.Join(configDir, ModelConfigName),
		NapcatConfig: filepath.Join(append([]string{configDir}, napcatRel...)...),
	}
}

// LegacyAdapterPath returns the adapter config of the historical
// MoFox-Bot-false layout under root, if it exists.
func LegacyAdapterPath(p Prober, root string) (string, bool) {
	legacyRoot := filepath.Join(root, "MoFox-Bot-false")
	if !p.IsDir(legacyRoot) {
		return "", false
	}
	path := filepath.Join(legacyRoot, "MoFox-Bot", "Adapter", ConfigDirName, "config.toml")
	if !p.Exists(path) {
		return "", false
	}
	return path, true
}
