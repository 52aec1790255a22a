package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/kbconsole/internal/app"
	"github.com/atomicstack/kbconsole/internal/logging"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	// File is the configuration file that was read, if any.
	File  string
	Flags map[string]string
	Args  []string
}

type Logging struct {
	FilePath string
	Trace    bool
	Level    string
}

const (
	envConfig     = "KBCONSOLE_CONFIG"
	envPrompt     = "KBCONSOLE_PROMPT"
	envRootMenu   = "KBCONSOLE_ROOT_MENU"
	envWidth      = "KBCONSOLE_WIDTH"
	envHeight     = "KBCONSOLE_HEIGHT"
	envShowFooter = "KBCONSOLE_FOOTER"
	envHistoryDB  = "KBCONSOLE_HISTORY_DB"
	envProfile    = "KBCONSOLE_PROFILE"
	envLatency    = "KBCONSOLE_LATENCY"
	envInterval   = "KBCONSOLE_WRITE_INTERVAL"
	envTrace      = "KBCONSOLE_TRACE"
	envLogFile    = "KBCONSOLE_LOG_FILE"
	envLogLevel   = "KBCONSOLE_LOG_LEVEL"
)

// Load parses configuration from the config file, environment variables and
// CLI arguments, in increasing order of precedence.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	path, explicit := configPath(args, env)
	file, err := loadFile(path, explicit)
	if err != nil {
		return Config{}, err
	}
	base := file.apply(defaults())
	if !file.found {
		path = ""
	}

	fs := flag.NewFlagSet("kbconsole", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	fs.String("config", path, "path to a YAML configuration file")
	prompt := fs.String("prompt", envOrDefault(env, envPrompt, base.App.Prompt), "prefix shown on the input line")
	rootMenu := fs.String("root-menu", envOrDefault(env, envRootMenu, base.App.RootMenu), "menu path to start in, e.g. connect/status")
	width := fs.Int("width", envOrInt(env, envWidth, base.App.Width), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, base.App.Height), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, base.App.ShowFooter), "show the key binding help row")
	historyDB := fs.String("history-db", envOrDefault(env, envHistoryDB, base.App.HistoryDB), "sqlite file journaling console output (empty disables)")
	profile := fs.String("profile", envOrDefault(env, envProfile, base.App.ProfileDir), "directory holding per-device YAML profiles (empty disables)")
	latency := fs.Duration("latency", envOrDuration(env, envLatency, base.App.Latency), "simulated device write latency")
	interval := fs.Duration("write-interval", envOrDuration(env, envInterval, base.App.WriteInterval), "minimum spacing between device writes")
	trace := fs.Bool("trace", envOrBool(env, envTrace, base.Logging.Trace), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, base.Logging.FilePath), "path to the log file")
	logLevel := fs.String("log-level", envOrDefault(env, envLogLevel, base.Logging.Level), "minimum log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}

	cfg := Config{
		App: app.Config{
			Prompt:        *prompt,
			RootMenu:      *rootMenu,
			Width:         *width,
			Height:        *height,
			ShowFooter:    *footer,
			HistoryDB:     *historyDB,
			ProfileDir:    *profile,
			Latency:       *latency,
			WriteInterval: *interval,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
			Level:    *logLevel,
		},
		File: path,
		Flags: map[string]string{
			"prompt":    *prompt,
			"rootMenu":  *rootMenu,
			"width":     strconv.Itoa(*width),
			"height":    strconv.Itoa(*height),
			"footer":    strconv.FormatBool(*footer),
			"historyDB": *historyDB,
			"profile":   *profile,
			"latency":   latency.String(),
			"interval":  interval.String(),
			"trace":     strconv.FormatBool(*trace),
			"logFile":   *logFile,
			"logLevel":  *logLevel,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		App: app.Config{
			Prompt:        "> ",
			ShowFooter:    true,
			WriteInterval: 20 * time.Millisecond,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// configPath finds --config before the full flag parse so the file can
// supply flag defaults. The second result reports an explicit choice.
func configPath(args []string, env map[string]string) (string, bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, "config="); ok {
			return value, true
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	if v, ok := env[envConfig]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	path, err := getUserConfigPath(env)
	if err != nil {
		return "", false
	}
	return path, false
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures required minimum configuration is present.
func Validate(cfg Config) error {
	var errs []error
	if strings.TrimSpace(cfg.App.Prompt) == "" {
		errs = append(errs, errors.New("prompt must not be empty"))
	}
	if cfg.App.Latency < 0 {
		errs = append(errs, fmt.Errorf("latency must be >= 0 (got %s)", cfg.App.Latency))
	}
	if cfg.App.WriteInterval < 0 {
		errs = append(errs, fmt.Errorf("write interval must be >= 0 (got %s)", cfg.App.WriteInterval))
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
