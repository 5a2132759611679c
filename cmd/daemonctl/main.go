package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
	"github.com/s0up4200/daemonctl/pkg/version"
	"github.com/spf13/cobra"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "daemonctl",
		Short: "daemonctl talks to Deluge, rTorrent, qBittorrent and watch directories through one interface",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new config file",
		RunE:  runInit,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.CheckForUpdates("s0up4200", "daemonctl")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	setupGroup := &cobra.Group{
		ID:    "setup",
		Title: "Configuration Commands:",
	}

	daemonGroup := &cobra.Group{
		ID:    "daemon",
		Title: "Daemon Commands:",
	}

	rootCmd.AddGroup(setupGroup, daemonGroup)

	initCmd.GroupID = "setup"
	kindsCmd.GroupID = "setup"
	checkCmd.GroupID = "daemon"
	addCmd.GroupID = "daemon"
	spaceCmd.GroupID = "daemon"

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(spaceCmd)
	rootCmd.AddCommand(versionCmd)

	addCmd.Flags().StringVar(&addLabel, "label", "", "label or category for the torrent")
	addCmd.Flags().StringVar(&addPath, "path", "", "download directory for the torrent")
	addCmd.Flags().BoolVar(&addPaused, "paused", false, "add the torrent without starting it")

	kindsCmd.Flags().StringVar(&kindsSupports, "supports", "", "only list daemon types with this capability, e.g. add-by-magnet-url")
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Error().Err(err).Msg("could not determine home directory")
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "daemonctl"), nil
}

func findConfig() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	// Check current directory
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	log.Error().Str("config_dir", dir).Msg("no config file found")
	return "", fmt.Errorf("no config file found in current directory or %s", dir)
}

func loadConfig() (*config.Config, error) {
	path, err := findConfig()
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Msg("loading config file")

	cfg, err := config.Load(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to load config file")
		return nil, err
	}
	return cfg, nil
}

const configHeader = `# daemonctl configuration
#
# Every entry under daemons needs a type:
#   daemon_deluge       Deluge daemon RPC (default port 8112, set port to 58846 for a stock daemon)
#   daemon_rtorrent     rTorrent XML-RPC (default port 8080, folder defaults to /RPC2)
#   daemon_qbittorrent  qBittorrent WebUI (default port 8080)
#   daemon_watchdir     saves .torrent files into folder
#
# Leave port out to use the default for the type.
# For Deluge, extraPassword is the daemon password if it differs from password.
# maxStalled refuses new torrents once that many unfinished downloads share the
# label being added (0 means unlimited).

`

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("could not create config directory")
			return fmt.Errorf("could not create config directory: %w", err)
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		log.Error().Str("path", configPath).Msg("config file already exists")
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	defaultConfig := &config.Config{
		Default: "deluge-local",
		Timeout: 10,
		Daemons: map[string]config.Settings{
			"deluge-local": {
				Type:     daemon.Deluge.Code(),
				Host:     "localhost",
				Port:     58846,
				Username: "localclient",
				Password: "",
			},
			"rtorrent-remote": {
				Type:     daemon.RTorrent.Code(),
				Host:     "mydomain.com",
				SSL:      true,
				Folder:   "/rutorrent/plugins/httprpc/action.php",
				Username: "",
				Password: "",
			},
			"qbit-local": {
				Type:     daemon.QBittorrent.Code(),
				Host:     "localhost",
				Username: "admin",
				Password: "adminadmin",
			},
			"blackhole": {
				Type:   daemon.WatchDir.Code(),
				Folder: "/path/to/watch/directory",
			},
		},
	}

	if err := config.Save(configPath, defaultConfig, configHeader); err != nil {
		return err
	}

	log.Info().Str("path", configPath).Msg("created new config file")
	log.Info().Msg("remember to edit the config file and fill in your daemon credentials")
	return nil
}
