package client

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

func TestNew(t *testing.T) {
	settings := config.Settings{
		Name:          "home",
		Type:          "daemon_deluge",
		Host:          "192.168.1.10",
		Username:      "admin",
		Password:      "pass",
		ExtraPassword: "daemon",
	}

	tests := []struct {
		kind daemon.Kind
		want reflect.Type
	}{
		{kind: daemon.Deluge, want: reflect.TypeOf(&DelugeClient{})},
		{kind: daemon.RTorrent, want: reflect.TypeOf(&RTorrentClient{})},
		{kind: daemon.QBittorrent, want: reflect.TypeOf(&QBitClient{})},
		{kind: daemon.WatchDir, want: reflect.TypeOf(&WatchDirClient{})},
	}

	for _, tt := range tests {
		t.Run(tt.kind.Code(), func(t *testing.T) {
			in := settings
			adapter := New(tt.kind, in)

			if got := reflect.TypeOf(adapter); got != tt.want {
				t.Errorf("New(%v) returned %v, want %v", tt.kind, got, tt.want)
			}
			if adapter.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", adapter.Kind(), tt.kind)
			}
			if adapter.Settings() != settings {
				t.Errorf("Settings() = %+v, want %+v", adapter.Settings(), settings)
			}
			if in != settings {
				t.Errorf("New() modified settings: %+v", in)
			}
		})
	}
}

func TestNewCoversEveryKind(t *testing.T) {
	for _, k := range daemon.Kinds() {
		if a := New(k, config.Settings{Host: "localhost"}); a == nil || a.Kind() != k {
			t.Errorf("New(%v) = %v", k, a)
		}
	}
}

func TestNewPanicsOnNone(t *testing.T) {
	for _, k := range []daemon.Kind{daemon.None, daemon.Kind(200)} {
		t.Run(k.Code(), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d) did not panic", k)
				}
			}()
			New(k, config.Settings{})
		})
	}
}

func TestFromSettings(t *testing.T) {
	a, err := FromSettings(config.Settings{Name: "seedbox", Type: "daemon_rtorrent", Host: "example.com"})
	if err != nil {
		t.Fatalf("FromSettings() error = %v", err)
	}
	if _, ok := a.(*RTorrentClient); !ok {
		t.Errorf("FromSettings() returned %T", a)
	}

	for _, typ := range []string{"", "daemon_nonexistent"} {
		if _, err := FromSettings(config.Settings{Name: "old", Type: typ}); err == nil {
			t.Errorf("FromSettings(type %q) should fail", typ)
		}
	}
}

func TestCheckConstructors(t *testing.T) {
	if err := checkConstructors(constructors); err != nil {
		t.Fatalf("checkConstructors() error = %v", err)
	}

	partial := map[daemon.Kind]constructor{}
	for k, v := range constructors {
		partial[k] = v
	}
	delete(partial, daemon.WatchDir)

	err := checkConstructors(partial)
	if err == nil || !strings.Contains(err.Error(), "daemon_watchdir") {
		t.Errorf("checkConstructors() error = %v, want missing daemon_watchdir", err)
	}

	partial[daemon.WatchDir] = constructors[daemon.WatchDir]
	partial[daemon.None] = constructors[daemon.WatchDir]
	if err := checkConstructors(partial); err == nil {
		t.Error("checkConstructors() should reject adapters for unknown kinds")
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name        string
		settings    config.Settings
		defaultPath string
		want        string
	}{
		{
			name:        "rtorrent defaults",
			settings:    config.Settings{Type: "daemon_rtorrent", Host: "seedbox"},
			defaultPath: "/RPC2",
			want:        "http://seedbox:8080/RPC2",
		},
		{
			name:        "ssl with folder and port",
			settings:    config.Settings{Type: "daemon_rtorrent", Host: "seedbox", Port: 443, SSL: true, Folder: "/rutorrent/plugins/httprpc/action.php"},
			defaultPath: "/RPC2",
			want:        "https://seedbox:443/rutorrent/plugins/httprpc/action.php",
		},
		{
			name:        "deluge default port",
			settings:    config.Settings{Type: "daemon_deluge", Host: "10.0.0.2"},
			defaultPath: "/",
			want:        "http://10.0.0.2:8112/",
		},
		{
			name:        "ipv6 host",
			settings:    config.Settings{Type: "daemon_qbittorrent", Host: "::1"},
			defaultPath: "/",
			want:        "http://[::1]:8080/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := baseURL(tt.settings, tt.defaultPath); got != tt.want {
				t.Errorf("baseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDelugeNotConnected(t *testing.T) {
	c := NewDelugeClient(config.Settings{Host: "localhost"})
	ctx := context.Background()

	if err := c.AddTorrent(ctx, []byte("d4:infod4:name1:xee"), "x", AddOptions{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("AddTorrent() error = %v, want ErrNotConnected", err)
	}
	if err := c.AddMagnet(ctx, "magnet:?xt=urn:btih:abc", AddOptions{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("AddMagnet() error = %v, want ErrNotConnected", err)
	}
	if _, err := c.GetFreeSpace(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("GetFreeSpace() error = %v, want ErrNotConnected", err)
	}
	if _, err := c.CountStalledTorrents(ctx, "x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CountStalledTorrents() error = %v, want ErrNotConnected", err)
	}
}

func TestDelugeRPCSettings(t *testing.T) {
	c := NewDelugeClient(config.Settings{Type: "daemon_deluge", Host: "nas", Username: "u", Password: "web"})
	s := c.rpcSettings()
	if s.Hostname != "nas" || s.Port != 8112 || s.Login != "u" || s.Password != "web" {
		t.Errorf("rpcSettings() = %+v", s)
	}

	c = NewDelugeClient(config.Settings{Type: "daemon_deluge", Host: "nas", Port: 58846, Password: "web", ExtraPassword: "daemon"})
	s = c.rpcSettings()
	if s.Port != 58846 || s.Password != "daemon" {
		t.Errorf("rpcSettings() = %+v, want port 58846 and extra password", s)
	}
}

func TestRTorrentFreeSpaceUnsupported(t *testing.T) {
	c := NewRTorrentClient(config.Settings{Type: "daemon_rtorrent", Host: "localhost"})
	if _, err := c.GetFreeSpace(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("GetFreeSpace() error = %v, want ErrUnsupported", err)
	}
}

func TestQbitOptions(t *testing.T) {
	got := qbitOptions(AddOptions{Label: "movies", DownloadDir: "/data", Paused: true})
	want := map[string]string{"category": "movies", "savepath": "/data", "paused": "true", "stopped": "true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("qbitOptions() = %v, want %v", got, want)
	}

	if got := qbitOptions(AddOptions{}); len(got) != 0 {
		t.Errorf("qbitOptions(empty) = %v, want empty", got)
	}
}
