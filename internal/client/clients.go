// Package client provides one adapter per daemon kind behind a uniform interface
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

var (
	// ErrUnsupported is returned for operations the daemon protocol cannot do
	ErrUnsupported = errors.New("not supported by daemon")
	// ErrNotConnected is returned when an operation is called before Connect
	ErrNotConnected = errors.New("not connected")
)

// Adapter is the interface every daemon adapter implements. Constructing an
// adapter never performs I/O; Connect does.
type Adapter interface {
	// Kind returns the daemon kind this adapter speaks to
	Kind() daemon.Kind

	// Settings returns the settings the adapter was created with
	Settings() config.Settings

	// Connect establishes and verifies the connection to the daemon
	Connect(ctx context.Context) error

	// AddTorrent adds a torrent from the contents of a .torrent file
	AddTorrent(ctx context.Context, torrentData []byte, name string, opts AddOptions) error

	// AddMagnet adds a torrent from a magnet link
	AddMagnet(ctx context.Context, uri string, opts AddOptions) error

	// GetFreeSpace returns the available disk space in bytes
	GetFreeSpace(ctx context.Context) (uint64, error)

	// CountStalledTorrents returns the number of unfinished downloads with the given label
	CountStalledTorrents(ctx context.Context, label string) (int, error)
}

// AddOptions control how a new torrent is added. Empty fields use the
// daemon's own defaults.
type AddOptions struct {
	Label       string
	DownloadDir string
	Paused      bool
}

func unsupported(kind daemon.Kind, op string) error {
	return fmt.Errorf("%s: %s: %w", kind, op, ErrUnsupported)
}

// baseURL builds the daemon URL from settings, using the kind's default port
// and defaultPath when the settings leave them empty.
func baseURL(s config.Settings, defaultPath string) string {
	scheme := "http"
	if s.SSL {
		scheme = "https"
	}

	path := s.Folder
	if path == "" {
		path = defaultPath
	}

	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.EffectivePort())),
		Path:   path,
	}
	return u.String()
}

func timeout(s config.Settings) time.Duration {
	if s.Timeout <= 0 {
		return 0
	}
	return time.Duration(s.Timeout) * time.Second
}
