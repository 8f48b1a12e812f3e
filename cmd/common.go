package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal/api"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/internal/build"
	"github.com/brewsignal/brewsignal/log"
)

// Flags shared between commands
var (
	ConfigPath []string      // Path(s) to config file/directory (default is first of $BREWSIGNAL_CONFIG_PATH, $XDG_CONFIG_HOME/brewsignal.yaml, $HOME/.config/brewsignal.yaml)
	Broker     string        // MQTT broker address
	Port       int           // MQTT broker port
	Username   string        // MQTT client username
	Password   string        // MQTT client password
	CertFile   string        // MQTT TLS certificate file (PEM encoded)
	KeyFile    string        // MQTT TLS private key file (PEM encoded)
	Backend    string        // BrewSignal backend URL
	Token      string        // BrewSignal backend token
	Interval   time.Duration // Staleness interval
	Discovery  string        // Discovery prefix, or 'disabled' to disable
	LogLevel   string        // Log level
)

var cfg *config.Config

func findConfig() {
	const defaultConfigFile = "brewsignal.yaml"

	if len(ConfigPath) > 0 {
		return
	}

	if env, ok := os.LookupEnv("BREWSIGNAL_CONFIG_PATH"); ok {
		ConfigPath = strings.Split(env, ",")
		return
	}

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		ConfigPath = []string{filepath.Join(xdg, defaultConfigFile)}
		return
	}

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	ConfigPath = []string{filepath.Join(home, ".config", defaultConfigFile)}
}

const banner = `┌────────────────────────────────────────────────────┐
│                                                    │
│   ██████╗ ██████╗ ███████╗██╗    ██╗               │
│   ██╔══██╗██╔══██╗██╔════╝██║    ██║               │
│   ██████╔╝██████╔╝█████╗  ██║ █╗ ██║               │
│   ██╔══██╗██╔══██╗██╔══╝  ██║███╗██║               │
│   ██████╔╝██║  ██║███████╗╚███╔███╔╝               │
│   ╚═════╝ ╚═╝  ╚═╝╚══════╝ ╚══╝╚══╝ signal         │
│                                                    │
│     Version: {{printf "%%-18.18s" .Version}}                    │
│     Build Time: %-26.26s         │
│                                                    │
└────────────────────────────────────────────────────┘
`

// BannerTemplate returns the string used for templating the banner.
func BannerTemplate() string {
	return fmt.Sprintf(banner, build.BuildTime())
}

// PrintBanner prints the banner to the given commands output.
func PrintBanner(cmd *cobra.Command) error {
	t := template.New("banner")
	template.Must(t.Parse(BannerTemplate()))
	return t.Execute(cmd.OutOrStdout(), cmd.Root())
}

const fullDocsFooter = `Full documentation is available at:
https://pkg.go.dev/github.com/brewsignal/brewsignal`

// ExitError is an error that should cause the program to exit with the given code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func maybeWithPort(addr string, port int) string {
	var hasPort bool

	if last := addr[len(addr)-1]; '0' <= last && last <= '9' {
		for _, c := range addr {
			switch {
			case c == ':':
				hasPort = true
			case '0' <= c && c <= '9':
				hasPort = hasPort && true
			default:
				hasPort = false
			}
		}
	}

	if hasPort || port < 0 {
		return addr
	}

	return addr + ":" + strconv.Itoa(port)
}

func flagsToConfig(cfg *config.Config) error {
	if LogLevel != "" {
		var level log.Level

		if err := level.UnmarshalText([]byte(LogLevel)); err != nil {
			return err
		}

		cfg.Log.Level = level
	}

	if Broker != "" {
		cfg.MQTT.Broker = maybeWithPort(Broker, Port)
	}

	if Username != "" {
		cfg.MQTT.Username = Username
	}

	if Password != "" {
		cfg.MQTT.Password = Password
	}

	if CertFile != "" {
		cfg.MQTT.CertFile = CertFile
	}

	if KeyFile != "" {
		cfg.MQTT.KeyFile = KeyFile
	}

	if Backend != "" {
		cfg.Backend.URL = Backend
	}

	if Token != "" {
		cfg.Backend.Token = Token
	}

	if Interval > 0 {
		cfg.SetInterval(Interval)
	}

	if Discovery == "disabled" {
		cfg.Discovery.Enabled = false
	} else if Discovery != "" {
		cfg.Discovery.Prefix = Discovery
	}

	return nil
}

func setLogHandler(cfg *config.Config, minLevel log.Level) {
	var w io.Writer

	switch strings.ToLower(cfg.Log.Output) {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	case "discard":
		log.SetHandler(log.DiscardHandler)
		return
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("Unable to open log file, deferring to stderr", err)
			return
		}

		w = f

		AddCleanup(func() { f.Close() })
	}

	if cfg.Log.Level < minLevel {
		cfg.Log.Level = minLevel
	}

	log.SetLogLevel(cfg.Log.Level)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		if w == nil {
			w = os.Stderr
		}

		log.SetJSONHandler(w)
	case "text":
		if w == nil {
			w = os.Stderr
		}

		log.SetTextHandler(w)
	default:
		if w != nil {
			log.SetOutput(w)
		}
	}
}

// loadConfig loads the config from the default or flagged paths and applies
// flag overrides.
func loadConfig(minLevel log.Level) (err error) {
	findConfig()

	cfg, err = config.Load(ConfigPath...)
	if err != nil {
		return err
	}

	if err = flagsToConfig(cfg); err != nil {
		return err
	}

	setLogHandler(cfg, minLevel)

	return nil
}

func backendClient() (*api.Client, error) {
	if cfg.Backend.URL == "" {
		return nil, fmt.Errorf("no backend url, set backend.url or $BREWSIGNAL_BACKEND_URL")
	}
	return api.NewClient(&cfg.Backend), nil
}
