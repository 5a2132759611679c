package client

import (
	"context"
	"fmt"

	qbittorrent "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

// QBitClient implements Adapter for the qBittorrent WebUI API
type QBitClient struct {
	settings config.Settings
	client   *qbittorrent.Client
}

// NewQBitClient creates a qBittorrent adapter. Login happens on Connect.
func NewQBitClient(settings config.Settings) *QBitClient {
	qbConfig := qbittorrent.Config{
		Host:          baseURL(settings, ""),
		Username:      settings.Username,
		Password:      settings.Password,
		TLSSkipVerify: settings.SSLTrustAll,
		Timeout:       settings.Timeout,
	}

	return &QBitClient{
		settings: settings,
		client:   qbittorrent.NewClient(qbConfig),
	}
}

func (c *QBitClient) Kind() daemon.Kind { return daemon.QBittorrent }

func (c *QBitClient) Settings() config.Settings { return c.settings }

// Connect logs in to the WebUI
func (c *QBitClient) Connect(ctx context.Context) error {
	if err := c.client.LoginCtx(ctx); err != nil {
		log.Error().Err(err).Str("host", c.settings.Host).Msg("failed to login to qbittorrent")
		return fmt.Errorf("failed to login to qbittorrent: %w", err)
	}

	log.Debug().Str("host", c.settings.Host).Msg("connected to qbittorrent")
	return nil
}

func qbitOptions(opts AddOptions) map[string]string {
	options := map[string]string{}
	if opts.Label != "" {
		options["category"] = opts.Label
	}
	if opts.DownloadDir != "" {
		options["savepath"] = opts.DownloadDir
	}
	if opts.Paused {
		options["paused"] = "true"
		options["stopped"] = "true"
	}
	return options
}

// AddTorrent adds a torrent to qBittorrent
func (c *QBitClient) AddTorrent(ctx context.Context, torrentData []byte, name string, opts AddOptions) error {
	options := qbitOptions(opts)
	log.Debug().
		Str("name", name).
		Interface("options", options).
		Msg("adding torrent to qbittorrent")

	if err := c.client.AddTorrentFromMemoryCtx(ctx, torrentData, options); err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}
	return nil
}

// AddMagnet adds a magnet link to qBittorrent
func (c *QBitClient) AddMagnet(ctx context.Context, uri string, opts AddOptions) error {
	if err := c.client.AddTorrentFromUrlCtx(ctx, uri, qbitOptions(opts)); err != nil {
		return fmt.Errorf("failed to add magnet: %w", err)
	}
	return nil
}

// GetFreeSpace returns available disk space in bytes
func (c *QBitClient) GetFreeSpace(ctx context.Context) (uint64, error) {
	space, err := c.client.GetFreeSpaceOnDiskCtx(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get free space")
		return 0, fmt.Errorf("failed to get free space: %w", err)
	}
	return space, nil
}

// CountStalledTorrents returns the number of stalled downloads in the given category
func (c *QBitClient) CountStalledTorrents(ctx context.Context, label string) (int, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{
		Category: label,
	})
	if err != nil {
		log.Error().Err(err).Str("category", label).Msg("failed to get torrents")
		return 0, fmt.Errorf("failed to get torrents: %w", err)
	}

	stalledCount := 0
	for _, t := range torrents {
		if t.State == qbittorrent.TorrentStateStalledDl {
			stalledCount++
		}
	}

	log.Debug().
		Str("category", label).
		Int("stalledCount", stalledCount).
		Msg("counted stalled torrents")

	return stalledCount, nil
}
