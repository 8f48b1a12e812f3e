package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brewsignal/brewsignal"
	"github.com/brewsignal/brewsignal/config"
	"github.com/brewsignal/brewsignal/log"
)

// Flags for [RunCommand]
var (
	Detach bool // Run detached (in background)
	Watch  bool // Reload the config on change
)

// RunCommand is the main [cobra.Command] used for running the bridge.
var RunCommand = &cobra.Command{
	Use:     "run [--config <path>]... [flags]",
	Aliases: []string{"start"},
	Short:   "Run the readings bridge",
	Long: `Run a bridge to provide corrected hydrometer readings to the MQTT broker.

A connection to the MQTT broker and the BrewSignal backend will be established and the bridge will run in the foreground until a signal is received.

	- SIGINT or SIGTERM will gracefully shutdown the bridge.

BrewSignal can load configuration from multiple YAML files, including from directories. If no config file is specified, the default path(s) will be determined by the first defined value of $BREWSIGNAL_CONFIG_PATH, $XDG_CONFIG_HOME/brewsignal.yaml, or $HOME/.config/brewsignal.yaml. In the case of $BREWSIGNAL_CONFIG_PATH, the value may be a comma-separated list of paths. If none of these files exist, the default configuration will be used, which looks for the following environment variables:

	- broker:   $BREWSIGNAL_BROKER_ADDRESS
	- username: $BREWSIGNAL_BROKER_USERNAME
	- password: $BREWSIGNAL_BROKER_PASSWORD
	- backend:  $BREWSIGNAL_BACKEND_URL
	- token:    $BREWSIGNAL_BACKEND_TOKEN

Devices may be listed in the config to pair a fixed set of hydrometers. With no devices configured, every device known to the backend is bridged.

All of the flags, if specified, will override the equivalent values in the config. The format of --broker should be scheme://host:port Where "scheme" is one of "tcp", "ssl", or "ws", "host" is the ip-address (or hostname) and "port" is the port on which the broker is accepting connections. If "scheme" is not defined, it defaults to "tcp" and if "port" is not defined, it will use the value of --port (default 1883).`,
	Example: `  brewsignal run --config config.yaml
  brewsignal run --broker 127.0.0.1:1883 --backend https://brew.example.net/api
  brewsignal run --backend https://brew.example.net/api --token t0k3n`,
	GroupID: "commands",
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if Detach {
			var code int
			if err = runDetached(cmd, args); err != nil {
				code = 1
			}
			return &ExitError{err, code}
		}

		if err = PrintBanner(cmd); err != nil {
			cmd.Println(err)
			return
		}

		if err = loadConfig(log.LevelDebug); err != nil {
			return
		}
		log.Info("Config loaded")
		log.Debug("MQTT broker", "addr", cfg.MQTT.Broker)
		log.Debug("Backend", "url", cfg.Backend.URL)
		return
	},
	RunE: runBridge,

	DisableFlagsInUseLine: true,
}

func init() {
	RunCommand.Flags().SortFlags = false
	RunCommand.Flags().StringSliceVarP(&ConfigPath, "config", "c", nil, "Path(s) to config file/directory")
	RunCommand.Flags().StringVarP(&Broker, "broker", "b", "", "MQTT broker address")
	RunCommand.Flags().IntVarP(&Port, "port", "p", 1883, "MQTT broker port")
	RunCommand.Flags().StringVar(&Username, "username", "", "MQTT client username")
	RunCommand.Flags().StringVar(&Password, "password", "", "MQTT client password")
	RunCommand.Flags().StringVar(&CertFile, "cert", "", "MQTT TLS certificate file (PEM encoded)")
	RunCommand.Flags().StringVar(&KeyFile, "key", "", "MQTT TLS private key file (PEM encoded)")
	RunCommand.Flags().StringVar(&Backend, "backend", "", "BrewSignal backend URL")
	RunCommand.Flags().StringVar(&Token, "token", "", "BrewSignal backend token")
	RunCommand.Flags().DurationVarP(&Interval, "interval", "i", 0, "Staleness interval")
	RunCommand.Flags().StringVarP(&Discovery, "discovery", "D", "", "Discovery prefix, or 'disabled' to disable")
	RunCommand.Flags().StringVarP(&LogLevel, "log", "l", "", "Log level")
	RunCommand.Flags().BoolVarP(&Detach, "detach", "d", false, "Run detached (in background)")
	RunCommand.Flags().BoolVarP(&Watch, "watch", "w", false, "Reload the config on change")

	RunCommand.MarkFlagFilename("config", "yaml", "yml")
	RunCommand.MarkFlagDirname("config")

	RunCommand.SetHelpTemplate(RunCommand.HelpTemplate() + "\n" + fullDocsFooter + "\n")

	RootCommand.AddCommand(RunCommand)
}

func runDetached(cmd *cobra.Command, args []string) error {
	c := exec.Command(os.Args[0], os.Args[1:]...)
	if errors.Is(c.Err, exec.ErrDot) {
		c.Err = nil
	}
	c.Args = slices.DeleteFunc(c.Args, func(s string) bool { return s == "-d" || s == "--detach" })
	return c.Start()
}

func runBridge(cmd *cobra.Command, args []string) error {
	if Detach {
		return runDetached(cmd, args)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	bridge := brewsignal.New(cfg)
	if err := bridge.Connect(ctx); err != nil {
		cancel()
		log.Error("Not connected.", err)
		return &ExitError{err, 1}
	}
	defer func() {
		cancel()
		bridge.Disconnect()
		log.Info("Done")
	}()

	bridge.Start(ctx)
	select {
	case <-bridge.Ready():
		if cfg.Discovery.Enabled {
			discoveryPath := filepath.Join(filepath.Dir(ConfigPath[0]), "discovery.json")
			bridge.Discover(ctx, discoveryPath)
		}
	case <-c:
		return nil
	}

	if Watch {
		go func() {
			err := config.Watch(ctx, func(next *config.Config) {
				setLogHandler(next, log.LevelDebug)
				if next.Interval > 0 {
					for _, h := range bridge.Devices() {
						h.SetInterval(next.Interval)
					}
				}
				log.Info("Config reloaded")
			}, ConfigPath...)
			if err != nil && ctx.Err() == nil {
				log.Warn("Config watch stopped", "err", err)
			}
		}()
	}

	select {
	case <-bridge.Done():
	case <-c:
		log.Debug("Received signal")
	}
	return nil
}
