package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

// WatchDirClient implements Adapter by saving .torrent files into a
// directory watched by some other client
type WatchDirClient struct {
	settings config.Settings
	watchDir string
}

// NewWatchDirClient creates a watch directory adapter for settings.Folder
func NewWatchDirClient(settings config.Settings) *WatchDirClient {
	return &WatchDirClient{
		settings: settings,
		watchDir: settings.Folder,
	}
}

func (c *WatchDirClient) Kind() daemon.Kind { return daemon.WatchDir }

func (c *WatchDirClient) Settings() config.Settings { return c.settings }

// Connect creates the watch directory if it doesn't exist
func (c *WatchDirClient) Connect(ctx context.Context) error {
	if c.watchDir == "" {
		return fmt.Errorf("watch directory not set for %s", c.settings.Name)
	}

	if err := os.MkdirAll(c.watchDir, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}
	return nil
}

// AddTorrent saves the torrent file to the watch directory. Labels, paths
// and paused state are up to whatever picks the file up.
func (c *WatchDirClient) AddTorrent(ctx context.Context, torrentData []byte, name string, opts AddOptions) error {
	torrentPath := filepath.Join(c.watchDir, fmt.Sprintf("%s.torrent", sanitizeFilename(name)))

	if err := os.WriteFile(torrentPath, torrentData, 0644); err != nil {
		return fmt.Errorf("failed to write torrent file: %w", err)
	}

	log.Info().
		Str("path", torrentPath).
		Msg("saved torrent file to watch directory")

	return nil
}

func (c *WatchDirClient) AddMagnet(ctx context.Context, uri string, opts AddOptions) error {
	return unsupported(daemon.WatchDir, "magnet links")
}

// GetFreeSpace returns available disk space in bytes for the watch directory
func (c *WatchDirClient) GetFreeSpace(ctx context.Context) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(c.watchDir, &stat); err != nil {
		return 0, fmt.Errorf("failed to get filesystem stats: %w", err)
	}

	// Available blocks * size per block
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CountStalledTorrents always returns 0 since a watch directory can't track torrent status
func (c *WatchDirClient) CountStalledTorrents(ctx context.Context, label string) (int, error) {
	return 0, nil
}

func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "torrent"
	}
	return name
}
