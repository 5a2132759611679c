package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/client"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
	"github.com/s0up4200/daemonctl/internal/metainfo"
	"github.com/spf13/cobra"
)

var (
	addLabel  string
	addPath   string
	addPaused bool

	kindsSupports string

	errTooManyStalled = errors.New("too many stalled downloads")

	kindsCmd = &cobra.Command{
		Use:   "kinds",
		Short: "List supported daemon types and what they can do",
		Args:  cobra.NoArgs,
		RunE:  runKinds,
	}

	checkCmd = &cobra.Command{
		Use:   "check [daemon]",
		Short: "Connect to configured daemons and report their status",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
		Example: `  # Check every configured daemon
  daemonctl check

  # Check a single daemon
  daemonctl check seedbox`,
	}

	addCmd = &cobra.Command{
		Use:   "add <daemon> <file|magnet>",
		Short: "Add a .torrent file or magnet link to a daemon",
		Args:  cobra.ExactArgs(2),
		RunE:  runAdd,
		Example: `  # Add a torrent file with a label
  daemonctl add seedbox ./movie.torrent --label movies

  # Add a magnet link paused
  daemonctl add home 'magnet:?xt=urn:btih:...' --paused`,
	}

	spaceCmd = &cobra.Command{
		Use:   "space [daemon]",
		Short: "Show free disk space reported by a daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSpace,
	}
)

func runKinds(cmd *cobra.Command, args []string) error {
	var filter daemon.Capability
	if kindsSupports != "" {
		c, ok := daemon.ParseCapability(kindsSupports)
		if !ok {
			return fmt.Errorf("unknown capability %q", kindsSupports)
		}
		filter = c
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tCODE\tPORT\tCAPABILITIES")
	for _, k := range daemon.Kinds() {
		if kindsSupports != "" && !k.Supports(filter) {
			continue
		}
		caps := daemon.SupportedCapabilities(k)
		names := make([]string, 0, len(caps))
		for _, c := range caps {
			names = append(names, c.String())
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", k, k.Code(), daemon.DefaultPort(k), strings.Join(names, ","))
	}
	return w.Flush()
}

func connectTimeout(cfg *config.Config, s config.Settings) time.Duration {
	seconds := s.Timeout
	if seconds <= 0 {
		seconds = cfg.Timeout
	}
	if seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

// connect resolves the daemon type, builds its adapter and connects it.
func connect(ctx context.Context, cfg *config.Config, s config.Settings) (client.Adapter, error) {
	kind, ok := s.Kind()
	if !ok {
		log.Warn().
			Str("daemon", s.Name).
			Str("type", s.Type).
			Msg("unknown daemon type, reconfigure this daemon")
		return nil, fmt.Errorf("daemon %s has unknown type %q", s.Name, s.Type)
	}

	log.Debug().
		Str("daemon", s.Name).
		Str("kind", kind.String()).
		Str("host", s.Host).
		Int("port", s.EffectivePort()).
		Msg("connecting to daemon")

	adapter := client.New(kind, s)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout(cfg, s))
	defer cancel()

	if err := adapter.Connect(ctx); err != nil {
		return nil, fmt.Errorf("daemon %s: %w", s.Name, err)
	}
	return adapter, nil
}

// checkStalled refuses new torrents while the daemon already has
// s.MaxStalled or more unfinished downloads with label.
func checkStalled(ctx context.Context, adapter client.Adapter, s config.Settings, label string) error {
	if s.MaxStalled <= 0 {
		return nil
	}

	stalledCount, err := adapter.CountStalledTorrents(ctx, label)
	if errors.Is(err, client.ErrUnsupported) {
		log.Debug().
			Err(err).
			Str("daemon", s.Name).
			Msg("daemon cannot count stalled downloads, skipping check")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to count stalled downloads: %w", err)
	}

	log.Debug().
		Str("daemon", s.Name).
		Str("category", label).
		Int("stalledCount", stalledCount).
		Int("maxStalled", s.MaxStalled).
		Msg("checking stalled downloads")

	if stalledCount >= s.MaxStalled {
		log.Info().
			Str("daemon", s.Name).
			Str("category", label).
			Int("stalledCount", stalledCount).
			Int("maxStalled", s.MaxStalled).
			Msg("skipping add due to too many stalled downloads")
		return fmt.Errorf("%s: %d of %d allowed: %w", s.Name, stalledCount, s.MaxStalled, errTooManyStalled)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := cfg.Names()
	if len(args) == 1 {
		names = []string{args[0]}
	}

	var errs []error
	for _, name := range names {
		s, err := cfg.Daemon(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if _, ok := s.Kind(); !ok {
			log.Warn().
				Str("daemon", s.Name).
				Str("type", s.Type).
				Msg("skipping daemon with unknown type")
			continue
		}

		adapter, err := connect(cmd.Context(), cfg, s)
		if err != nil {
			log.Error().Err(err).Str("daemon", s.Name).Msg("daemon unreachable")
			errs = append(errs, err)
			continue
		}

		log.Info().
			Str("daemon", s.Name).
			Str("kind", adapter.Kind().String()).
			Str("host", s.Host).
			Int("port", s.EffectivePort()).
			Msg("daemon is reachable")
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to reach %d daemon(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := cfg.Daemon(args[0])
	if err != nil {
		return err
	}

	kind, ok := s.Kind()
	if !ok {
		return fmt.Errorf("daemon %s has unknown type %q", s.Name, s.Type)
	}

	source := args[1]
	isMagnet := strings.HasPrefix(source, "magnet:")

	if isMagnet && !kind.Supports(daemon.AddByMagnetURL) {
		return fmt.Errorf("%s daemons cannot add magnet links", kind)
	}
	if !isMagnet && !kind.Supports(daemon.AddByFile) {
		return fmt.Errorf("%s daemons cannot add torrent files", kind)
	}

	opts := client.AddOptions{Paused: addPaused}
	if addLabel != "" {
		if !kind.Supports(daemon.SetLabel) {
			log.Warn().Str("kind", kind.String()).Msg("daemon does not support labels, ignoring --label")
		} else {
			opts.Label = addLabel
		}
	}
	if addPath != "" {
		if !kind.Supports(daemon.CustomFolder) {
			log.Warn().Str("kind", kind.String()).Msg("daemon does not support custom folders, ignoring --path")
		} else {
			opts.DownloadDir = addPath
		}
	}

	adapter, err := connect(cmd.Context(), cfg, s)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := checkStalled(ctx, adapter, s, opts.Label); err != nil {
		return err
	}

	if isMagnet {
		if err := adapter.AddMagnet(ctx, source, opts); err != nil {
			log.Error().Err(err).Str("daemon", s.Name).Msg("failed to add magnet")
			return err
		}
		log.Info().Str("daemon", s.Name).Msg("successfully added magnet")
		return nil
	}

	torrent, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read torrent file: %w", err)
	}

	info, err := metainfo.Parse(torrent)
	if err != nil {
		log.Warn().Err(err).Str("file", source).Msg("failed to decode torrent info")
		info.Name = "unknown"
	}

	freeSpace, err := adapter.GetFreeSpace(ctx)
	switch {
	case errors.Is(err, client.ErrUnsupported):
		log.Debug().
			Str("daemon", s.Name).
			Str("torrentSize", units.HumanSize(float64(info.TotalSize))).
			Msg("daemon cannot report free space, skipping disk space check")
	case err != nil:
		log.Warn().Err(err).Str("daemon", s.Name).Msg("failed to get free space, skipping disk space check")
	default:
		requiredSpace := metainfo.RequiredSpace(info.TotalSize)

		log.Debug().
			Str("daemon", s.Name).
			Str("availableSpace", units.HumanSize(float64(freeSpace))).
			Str("requiredSpace", units.HumanSize(float64(requiredSpace))).
			Msg("checking disk space")

		if freeSpace < requiredSpace {
			return fmt.Errorf("insufficient disk space on %s: %s free, %s required",
				s.Name, units.HumanSize(float64(freeSpace)), units.HumanSize(float64(requiredSpace)))
		}
	}

	if err := adapter.AddTorrent(ctx, torrent, info.Name, opts); err != nil {
		log.Error().Err(err).Str("daemon", s.Name).Msg("failed to add torrent")
		return err
	}

	log.Info().
		Str("daemon", s.Name).
		Str("torrent", info.Name).
		Int("files", info.FileCount).
		Str("size", units.HumanSize(float64(info.TotalSize))).
		Msg("successfully added torrent")

	return nil
}

func runSpace(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	s, err := cfg.Daemon(name)
	if err != nil {
		return err
	}

	adapter, err := connect(cmd.Context(), cfg, s)
	if err != nil {
		return err
	}

	freeSpace, err := adapter.GetFreeSpace(cmd.Context())
	if err != nil {
		return err
	}

	log.Info().
		Str("daemon", s.Name).
		Str("freeSpace", units.HumanSize(float64(freeSpace))).
		Msg("free disk space")
	return nil
}
