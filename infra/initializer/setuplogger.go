package initializer

import (
	"io"
	"log/slog"

	"github.com/amirasaad/treasury/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
	idColor    = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
)

// highlighted keys get a colour of their own in text output.
var highlighted = map[string]lipgloss.AdaptiveColor{
	"error":          errorColor,
	"service":        debugColor,
	"component":      debugColor,
	"asset_id":       idColor,
	"budget_id":      idColor,
	"allocation_id":  idColor,
	"transaction_id": idColor,
	"amount":         infoColor,
	"status":         warnColor,
}

func levelStyle(icon string, color lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().SetString(icon).Bold(true).Padding(0, 1).Foreground(color)
}

// setupLogger builds the process logger on charmbracelet/log, exposes it as
// *slog.Logger and makes it the slog default.
func setupLogger(cfg *config.Log, w io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = levelStyle("ERR", errorColor)
	styles.Levels[log.WarnLevel] = levelStyle("WRN", warnColor)
	styles.Levels[log.InfoLevel] = levelStyle("INF", infoColor)
	styles.Levels[log.DebugLevel] = levelStyle("DBG", debugColor)
	for key, color := range highlighted {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(color)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(styles)

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}
