package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drake/ember/config"
	"github.com/drake/ember/debug"
	"github.com/drake/ember/history"
	"github.com/drake/ember/network"
	"github.com/drake/ember/session"
	"github.com/drake/ember/ui"
)

var (
	cfgFile     string
	scriptPaths []string
)

var rootCmd = &cobra.Command{
	Use:   "ember [host:port]",
	Short: "A scriptable terminal MUD client",
	Long: `Ember is a terminal MUD client with styled output, GMCP status
gauges, a chat pane, and Lua scripting. With no address it starts
disconnected; use /connect or ember.connect from a script.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := ""
		if len(args) == 1 {
			addr = args[0]
		}
		return run(addr)
	},
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/ember/config.yaml)")
	rootCmd.Flags().StringArrayVarP(&scriptPaths, "script", "s", nil, "Lua script to load after init.lua (repeatable)")
}

func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.Dir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("EMBER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing config file is fine; defaults apply
	_ = viper.ReadInConfig()
}

func run(addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Address
	}

	if err := os.MkdirAll(config.Dir(), 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	var store *history.Store
	if cfg.History.Persist {
		store, err = history.OpenStore(config.HistoryFile())
		if err != nil {
			return fmt.Errorf("history store: %w", err)
		}
		defer store.Close()
	}
	hist, err := history.NewManager(cfg.History.Limit, store)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	net := network.NewTCPClient()
	tui := ui.New(ui.Config{
		OutputLines: cfg.Buffers.OutputLines,
		ChatLines:   cfg.Buffers.ChatLines,
		History:     hist,
	})

	sess := session.New(net, tui, session.Config{
		ConfigDir:     config.Dir(),
		UserScripts:   scriptPaths,
		Address:       addr,
		VitalsPercent: cfg.Vitals.Percent,
		GaugeStats:    cfg.Vitals.Stats,
		GaugeHigh:     cfg.Gauges.HighThreshold,
		GaugeMid:      cfg.Gauges.MidThreshold,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	debug.NewMonitor(ctx, sess).Start()

	return sess.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
