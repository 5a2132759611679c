package client

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/autobrr/go-deluge"
	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

type delugeRPC interface {
	Connect(context.Context) error
	AddTorrentFile(ctx context.Context, filename, contents string, options *deluge.Options) (string, error)
	AddTorrentMagnet(ctx context.Context, magnetURI string, options *deluge.Options) (string, error)
	GetFreeSpace(ctx context.Context, path string) (int64, error)
	TorrentsStatus(ctx context.Context, state deluge.TorrentState, ids []string) (map[string]*deluge.TorrentStatus, error)
	LabelPlugin(ctx context.Context) (*deluge.LabelPlugin, error)
}

// delugeLabels is the part of the label plugin the adapter uses
type delugeLabels interface {
	AddLabel(ctx context.Context, label string) error
	SetTorrentLabel(ctx context.Context, hash, label string) error
	GetTorrentsLabels(state deluge.TorrentState, ids []string) (map[string]string, error)
}

// DelugeClient implements Adapter for the Deluge daemon RPC protocol
type DelugeClient struct {
	settings config.Settings
	client   delugeRPC
	// labels returns nil when the label plugin is not enabled
	labels func(ctx context.Context) (delugeLabels, error)
	isV2   bool
}

// NewDelugeClient creates a Deluge adapter. The protocol version is picked
// on Connect.
func NewDelugeClient(settings config.Settings) *DelugeClient {
	return &DelugeClient{settings: settings}
}

func (c *DelugeClient) Kind() daemon.Kind { return daemon.Deluge }

func (c *DelugeClient) Settings() config.Settings { return c.settings }

func (c *DelugeClient) rpcSettings() deluge.Settings {
	// the daemon password can differ from the web UI one
	password := c.settings.Password
	if c.settings.ExtraPassword != "" {
		password = c.settings.ExtraPassword
	}

	return deluge.Settings{
		Hostname:         c.settings.Host,
		Port:             uint(c.settings.EffectivePort()),
		Login:            c.settings.Username,
		Password:         password,
		ReadWriteTimeout: timeout(c.settings),
	}
}

func (c *DelugeClient) use(rpc delugeRPC, isV2 bool) {
	c.client = rpc
	c.isV2 = isV2
	c.labels = func(ctx context.Context) (delugeLabels, error) {
		plugin, err := rpc.LabelPlugin(ctx)
		if err != nil || plugin == nil {
			return nil, err
		}
		return plugin, nil
	}
}

// Connect tries the v2 protocol first and falls back to v1
func (c *DelugeClient) Connect(ctx context.Context) error {
	v2client := deluge.NewV2(c.rpcSettings())
	err := v2client.Connect(ctx)
	if err == nil {
		log.Debug().Str("host", c.settings.Host).Msg("connected to deluge v2")
		c.use(v2client, true)
		return nil
	}

	log.Debug().Err(err).Str("host", c.settings.Host).Msg("deluge v2 connect failed, trying v1")

	v1client := deluge.NewV1(c.rpcSettings())
	if err := v1client.Connect(ctx); err != nil {
		log.Error().Err(err).Str("host", c.settings.Host).Msg("failed to connect to deluge")
		return fmt.Errorf("failed to connect to deluge: %w", err)
	}

	log.Debug().Str("host", c.settings.Host).Msg("connected to deluge v1")
	c.use(v1client, false)
	return nil
}

func (c *DelugeClient) options(opts AddOptions) *deluge.Options {
	addPaused := opts.Paused
	options := &deluge.Options{
		AddPaused: &addPaused,
	}
	if opts.DownloadDir != "" {
		downloadDir := opts.DownloadDir
		options.DownloadLocation = &downloadDir
	}
	return options
}

// AddTorrent implements the Adapter interface
func (c *DelugeClient) AddTorrent(ctx context.Context, torrentData []byte, name string, opts AddOptions) error {
	if c.client == nil {
		return ErrNotConnected
	}

	log.Debug().
		Str("name", name).
		Interface("options", opts).
		Msg("adding torrent to deluge")

	fileContentBase64 := base64.StdEncoding.EncodeToString(torrentData)
	hash, err := c.client.AddTorrentFile(ctx, name, fileContentBase64, c.options(opts))
	if err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}

	return c.setLabel(ctx, hash, opts.Label)
}

// AddMagnet implements the Adapter interface
func (c *DelugeClient) AddMagnet(ctx context.Context, uri string, opts AddOptions) error {
	if c.client == nil {
		return ErrNotConnected
	}

	hash, err := c.client.AddTorrentMagnet(ctx, uri, c.options(opts))
	if err != nil {
		return fmt.Errorf("failed to add magnet: %w", err)
	}

	return c.setLabel(ctx, hash, opts.Label)
}

func (c *DelugeClient) setLabel(ctx context.Context, hash, label string) error {
	if label == "" {
		return nil
	}

	labels, err := c.labels(ctx)
	if err != nil {
		return fmt.Errorf("failed to get label plugin: %w", err)
	}
	if labels == nil {
		log.Warn().Str("label", label).Msg("deluge label plugin not enabled, skipping label")
		return nil
	}

	// First ensure the label exists
	if err := labels.AddLabel(ctx, label); err != nil {
		return fmt.Errorf("failed to create label: %w", err)
	}

	if err := labels.SetTorrentLabel(ctx, hash, label); err != nil {
		return fmt.Errorf("failed to set torrent label: %w", err)
	}
	return nil
}

// GetFreeSpace implements the Adapter interface
func (c *DelugeClient) GetFreeSpace(ctx context.Context) (uint64, error) {
	if c.client == nil {
		return 0, ErrNotConnected
	}

	// Get free space in the default download location
	freeSpace, err := c.client.GetFreeSpace(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to get free space: %w", err)
	}

	return uint64(freeSpace), nil
}

// CountStalledTorrents returns the number of unfinished torrents carrying label
func (c *DelugeClient) CountStalledTorrents(ctx context.Context, label string) (int, error) {
	if c.client == nil {
		return 0, ErrNotConnected
	}

	labels, err := c.labels(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get label plugin: %w", err)
	}
	if labels == nil {
		return 0, unsupported(daemon.Deluge, "label plugin not enabled")
	}

	statuses, err := c.client.TorrentsStatus(ctx, deluge.StateUnspecified, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get torrent status: %w", err)
	}

	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}

	labelsByTorrent, err := labels.GetTorrentsLabels(deluge.StateUnspecified, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to get torrent labels: %w", err)
	}

	stalledCount := 0
	for id, l := range labelsByTorrent {
		if l != label {
			continue
		}
		if status, ok := statuses[id]; ok && status != nil && !status.IsFinished {
			stalledCount++
		}
	}

	log.Debug().
		Str("label", label).
		Bool("v2", c.isV2).
		Int("stalledCount", stalledCount).
		Msg("counted unfinished torrents")

	return stalledCount, nil
}
