package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"

	"wearrelay/internal/manager"
)

// Config carries global CLI options. Flags override the WEARRELAY_*
// environment, which overrides the config file.
type Config struct {
	ConfigPath string
	Addr       string
	LogLevel   string
	// Server is the base URL client commands talk to.
	Server string
	// Token is sent as a bearer token on mutating requests.
	Token           string
	WatchdogSeconds int
	MemoryPrefs     bool

	Out io.Writer
	// listening receives the bound address once serve accepts connections.
	listening func(net.Addr)
}

// ConfigFromEnv returns a Config seeded from WEARRELAY_* variables.
func ConfigFromEnv() *Config {
	return &Config{
		ConfigPath:      envStr("WEARRELAY_CONFIG", ""),
		Addr:            envStr("WEARRELAY_ADDR", ""),
		LogLevel:        envStr("WEARRELAY_LOG_LEVEL", ""),
		Server:          envStr("WEARRELAY_SERVER", "http://127.0.0.1:8080"),
		Token:           envStr("WEARRELAY_TOKEN", ""),
		WatchdogSeconds: envInt("WEARRELAY_WATCHDOG_SECONDS", 0),
		MemoryPrefs:     envBool("WEARRELAY_MEMORY_PREFS", false),
	}
}

// Execute runs the command line of the current process.
func Execute() error { return Run(os.Args[1:], ConfigFromEnv()) }

// Run dispatches args. It returns an error instead of exiting so tests can
// drive the command tree.
func Run(args []string, cfg *Config) error {
	root := buildRootCmdWith(cfg)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func out(cfg *Config) io.Writer {
	if cfg.Out != nil {
		return cfg.Out
	}
	return os.Stdout
}

func actionNames() []string {
	names := make([]string, 0, len(manager.Actions))
	for _, a := range manager.Actions {
		names = append(names, string(a))
	}
	return names
}

// buildRootCmdWith constructs the command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "wearrelay",
		Short:         "Drone telemetry relay for paired companion devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "Config file (.yaml|.json|.toml, defaults WEARRELAY_CONFIG)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error (defaults WEARRELAY_LOG_LEVEL)")
	pf.StringVar(&cfg.Server, "server", cfg.Server, "Relay base URL for client commands (defaults WEARRELAY_SERVER)")
	pf.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token for mutating requests (defaults WEARRELAY_TOKEN)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cfg.Out == nil {
			cfg.Out = cmd.OutOrStdout()
		}
	}

	serveCmd := &cobra.Command{Use: "serve", Short: "Run the relay", Example: "  wearrelay serve --config relay.yaml", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fnServe(cmd.Context(), cfg)
	}}
	serveCmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (defaults WEARRELAY_ADDR or :8080)")
	serveCmd.Flags().IntVar(&cfg.WatchdogSeconds, "watchdog-seconds", cfg.WatchdogSeconds, "Idle watchdog timeout in seconds")
	serveCmd.Flags().BoolVar(&cfg.MemoryPrefs, "memory-prefs", cfg.MemoryPrefs, "Keep preferences in memory instead of SQLite")
	root.AddCommand(serveCmd)

	actionCmd := &cobra.Command{
		Use:       "action <show-status|connect|disconnect>",
		Short:     "Submit an action to a running relay",
		Example:   "  wearrelay action connect",
		Args:      cobra.ExactArgs(1),
		ValidArgs: actionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := manager.ParseAction(args[0]); err != nil {
				return err
			}
			return fnAction(cmd.Context(), cfg, args[0])
		},
	}
	root.AddCommand(actionCmd)

	var asJSON bool
	statusCmd := &cobra.Command{Use: "status", Short: "Show relay session status", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fnStatus(cmd.Context(), cfg, asJSON)
	}}
	statusCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON status")
	root.AddCommand(statusCmd)

	devicesCmd := &cobra.Command{Use: "devices", Short: "List paired Bluetooth devices known to the relay", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fnDevices(cmd.Context(), cfg)
	}}
	selectCmd := &cobra.Command{Use: "select <address>", Short: "Choose the Bluetooth telemetry radio", Example: "  wearrelay devices select 00:11:22:33:44:55", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnSelect(cmd.Context(), cfg, args[0])
	}}
	devicesCmd.AddCommand(selectCmd)
	root.AddCommand(devicesCmd)

	prefsCmd := &cobra.Command{Use: "prefs", Short: "Read and write stored preferences", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("prefs requires a subcommand: list|get|set")
	}}
	prefsCmd.PersistentFlags().BoolVar(&cfg.MemoryPrefs, "memory-prefs", cfg.MemoryPrefs, "Use an in-memory store seeded from the config file")
	listCmd := &cobra.Command{Use: "list", Short: "List stored preferences", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return fnPrefsList(cfg)
	}}
	getCmd := &cobra.Command{Use: "get <key>", Short: "Print one preference", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnPrefsGet(cfg, args[0])
	}}
	setCmd := &cobra.Command{Use: "set <key> <value>", Short: "Validate and store one preference", Example: "  wearrelay prefs set pref_connection_type tcp", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		return fnPrefsSet(cfg, args[0], args[1])
	}}
	prefsCmd.AddCommand(listCmd, getCmd, setCmd)
	root.AddCommand(prefsCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(out(cfg)) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(out(cfg)) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(out(cfg), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(out(cfg)) }})
	root.AddCommand(completionCmd)

	return root
}
