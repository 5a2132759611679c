package client

import (
	"context"
	"fmt"

	rtorrent "github.com/autobrr/go-rtorrent"
	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

const rtorrentDefaultPath = "/RPC2"

// RTorrentClient implements Adapter for rTorrent over XML-RPC
type RTorrentClient struct {
	settings config.Settings
	client   *rtorrent.Client
}

// NewRTorrentClient creates an rTorrent adapter
func NewRTorrentClient(settings config.Settings) *RTorrentClient {
	cfg := rtorrent.Config{
		Addr:          baseURL(settings, rtorrentDefaultPath),
		TLSSkipVerify: settings.SSLTrustAll,
		BasicUser:     settings.Username,
		BasicPass:     settings.Password,
	}

	return &RTorrentClient{
		settings: settings,
		client:   rtorrent.NewClient(cfg),
	}
}

func (c *RTorrentClient) Kind() daemon.Kind { return daemon.RTorrent }

func (c *RTorrentClient) Settings() config.Settings { return c.settings }

// Connect checks that the XML-RPC endpoint answers
func (c *RTorrentClient) Connect(ctx context.Context) error {
	name, err := c.client.Name(ctx)
	if err != nil {
		log.Error().Err(err).Str("host", c.settings.Host).Msg("failed to connect to rtorrent")
		return fmt.Errorf("failed to connect to rtorrent: %w", err)
	}

	log.Debug().Str("host", c.settings.Host).Str("name", name).Msg("connected to rtorrent")
	return nil
}

func (c *RTorrentClient) extraArgs(opts AddOptions) []*rtorrent.FieldValue {
	var extraArgs []*rtorrent.FieldValue
	if opts.Label != "" {
		extraArgs = append(extraArgs, rtorrent.DLabel.SetValue(opts.Label))
	}
	if opts.DownloadDir != "" {
		extraArgs = append(extraArgs, rtorrent.Field("d.directory").SetValue(opts.DownloadDir))
	}
	return extraArgs
}

// AddTorrent adds a torrent from memory, stopped if opts.Paused is set
func (c *RTorrentClient) AddTorrent(ctx context.Context, torrentData []byte, name string, opts AddOptions) error {
	log.Debug().
		Str("name", name).
		Interface("options", opts).
		Msg("adding torrent to rtorrent")

	extraArgs := c.extraArgs(opts)

	var err error
	if opts.Paused {
		err = c.client.AddTorrentStopped(ctx, torrentData, extraArgs...)
	} else {
		err = c.client.AddTorrent(ctx, torrentData, extraArgs...)
	}
	if err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}

	return nil
}

// AddMagnet hands the magnet link to rTorrent as a load URL
func (c *RTorrentClient) AddMagnet(ctx context.Context, uri string, opts AddOptions) error {
	extraArgs := c.extraArgs(opts)

	var err error
	if opts.Paused {
		err = c.client.AddStopped(ctx, uri, extraArgs...)
	} else {
		err = c.client.Add(ctx, uri, extraArgs...)
	}
	if err != nil {
		return fmt.Errorf("failed to add magnet: %w", err)
	}

	return nil
}

// GetFreeSpace is not available over rTorrent's XML-RPC interface
func (c *RTorrentClient) GetFreeSpace(ctx context.Context) (uint64, error) {
	return 0, unsupported(daemon.RTorrent, "free space")
}

// CountStalledTorrents returns the number of incomplete downloads with the given label
func (c *RTorrentClient) CountStalledTorrents(ctx context.Context, label string) (int, error) {
	torrents, err := c.client.GetTorrents(ctx, rtorrent.ViewMain)
	if err != nil {
		return 0, fmt.Errorf("failed to get torrents: %w", err)
	}

	stalledCount := 0
	for _, t := range torrents {
		if t.Label != label {
			continue
		}

		status, err := c.client.GetStatus(ctx, t)
		if err != nil {
			continue
		}

		if !status.Completed {
			stalledCount++
		}
	}

	log.Debug().
		Str("label", label).
		Int("stalledCount", stalledCount).
		Msg("counted incomplete torrents")

	return stalledCount, nil
}
