// Package startup resolves the bot's document and log paths once at process
// start and records the outcome.
package startup

import (
	"errors"
	"log/slog"

	"mofox-ui/pkg/locate"
)

// ErrBotConfigNotFound is the startup error when no layout yields a
// bot_config.toml. Its text is shown by the management UI.
var ErrBotConfigNotFound = errors.New("错误: 'bot_config.toml' 未找到。请确认 'MoFox-UI' 与 'Bot'/'MoFox-Bot' 文件夹在同一目录下。")

// MessageOK is the status message of a successful startup.
const MessageOK = "应用程序已成功启动"

// Document names served under /config/{name}.
const (
	DocBot    = "bot"
	DocModel  = "model"
	DocNapcat = "napcat"
)

// Documents lists the document names in display order.
var Documents = []string{DocBot, DocModel, DocNapcat}

// Options configures Initialize.
type Options struct {
	StartDir string
	MaxHops  int
	Prober   locate.Prober // real filesystem when nil
	Logger   *slog.Logger
}

// State is the outcome of startup. It is not modified after Initialize
// returns.
type State struct {
	Paths    locate.Paths `json:"paths"`
	LogPath  string       `json:"log_path"`
	Warnings []string     `json:"warnings"`
	Err      error        `json:"-"`
}

// Initialize runs discovery for opts.StartDir. A missing bot config is
// recorded in Err; a missing model config, adapter config or log file only
// adds a warning.
func Initialize(opts Options) *State {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prober := opts.Prober
	if prober == nil {
		prober = locate.OSProber{}
	}

	l := &locate.Locator{Prober: prober, MaxHops: opts.MaxHops, Logger: logger}
	s := &State{Paths: l.Locate(opts.StartDir), Warnings: []string{}}

	if s.Paths.Bot == "" || !prober.Exists(s.Paths.Bot) {
		s.Err = ErrBotConfigNotFound
		logger.Error("startup failed", "error", s.Err, "search_root", s.Paths.SearchRoot)
	}

	if s.Paths.Model == "" || !prober.Exists(s.Paths.Model) {
		s.warn(logger, "model_config.toml not found", s.Paths.Model)
		s.Paths.Model = ""
	}
	if s.Paths.Napcat == "" {
		s.warn(logger, "napcat adapter config not found", "")
	}

	if s.Paths.BotRoot != "" {
		path, ok := locate.DeriveLogPath(prober, s.Paths.BotRoot)
		if ok {
			s.LogPath = path
			logger.Info("log file found", "path", path)
		} else {
			s.warn(logger, "log file not found", path)
		}
	}
	return s
}

func (s *State) warn(logger *slog.Logger, msg, path string) {
	if path != "" {
		msg += " at " + path
	}
	s.Warnings = append(s.Warnings, msg)
	logger.Warn(msg)
}

// OK reports whether startup succeeded.
func (s *State) OK() bool {
	return s.Err == nil
}

// Message is the status text for the UI.
func (s *State) Message() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return MessageOK
}

// DocumentPath returns the file for a document name. known is false for
// names other than bot, model and napcat. The path is empty when the
// document was not found or startup failed.
func (s *State) DocumentPath(name string) (path string, known bool) {
	switch name {
	case DocBot:
		path = s.Paths.Bot
	case DocModel:
		path = s.Paths.Model
	case DocNapcat:
		path = s.Paths.Napcat
	default:
		return "", false
	}
	if s.Err != nil {
		return "", true
	}
	return path, true
}
