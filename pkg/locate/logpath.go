package locate

import "path/filepath"

// LogFileName is the bot's main log file under <bot-root>/logs.
const LogFileName = "Mai.log"

// LogPath returns the expected log file location for botRoot without
// checking that it exists.
func LogPath(botRoot string) string {
	return filepath.Join(botRoot, "logs", LogFileName)
}

// DeriveLogPath returns LogPath(botRoot) and whether the file exists. When
// the log has not been created yet the expected path is still returned so the
// caller can report where it looked.
func DeriveLogPath(p Prober, botRoot string) (string, bool) {
	if botRoot == "" {
		return "", false
	}
	path := LogPath(botRoot)
	if !p.Exists(path) {
		return path, false
	}
	return path, true
}
