package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/s0up4200/daemonctl/internal/client"
	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

func TestRunKinds(t *testing.T) {
	var out bytes.Buffer
	kindsCmd.SetOut(&out)
	defer kindsCmd.SetOut(nil)

	if err := runKinds(kindsCmd, nil); err != nil {
		t.Fatalf("runKinds() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(daemon.Kinds())+1 {
		t.Fatalf("got %d lines, want header plus %d kinds:\n%s", len(lines), len(daemon.Kinds()), out.String())
	}

	for i, k := range daemon.Kinds() {
		line := lines[i+1]
		if !strings.Contains(line, k.Code()) {
			t.Errorf("line %q does not mention %s", line, k.Code())
		}
	}

	if !strings.Contains(lines[1], "8112") || !strings.Contains(lines[1], "set-trackers") {
		t.Errorf("deluge line = %q", lines[1])
	}
	if strings.Contains(lines[2], "set-download-location") {
		t.Errorf("rtorrent line = %q, should not list set-download-location", lines[2])
	}
}

func TestRunKindsSupports(t *testing.T) {
	tests := []struct {
		name     string
		supports string
		want     []daemon.Kind
		wantErr  bool
	}{
		{name: "magnet links", supports: "add-by-magnet-url", want: []daemon.Kind{daemon.Deluge, daemon.RTorrent, daemon.QBittorrent}},
		{name: "stopping and starting", supports: "stopping-starting", want: []daemon.Kind{daemon.RTorrent}},
		{name: "unknown capability", supports: "teleport", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			kindsCmd.SetOut(&out)
			kindsSupports = tt.supports
			defer func() {
				kindsCmd.SetOut(nil)
				kindsSupports = ""
			}()

			err := runKinds(kindsCmd, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("runKinds() should fail for an unknown capability")
				}
				return
			}
			if err != nil {
				t.Fatalf("runKinds() error = %v", err)
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != len(tt.want)+1 {
				t.Fatalf("got %d lines, want header plus %d kinds:\n%s", len(lines), len(tt.want), out.String())
			}
			for i, k := range tt.want {
				if !strings.Contains(lines[i+1], k.Code()) {
					t.Errorf("line %q, want %s", lines[i+1], k.Code())
				}
			}
		})
	}
}

type stalledAdapter struct {
	client.Adapter
	count  int
	err    error
	called bool
}

func (a *stalledAdapter) CountStalledTorrents(ctx context.Context, label string) (int, error) {
	a.called = true
	return a.count, a.err
}

func TestCheckStalled(t *testing.T) {
	errDaemon := errors.New("connection reset")

	tests := []struct {
		name       string
		maxStalled int
		count      int
		err        error
		wantCalled bool
		wantErr    error
	}{
		{name: "unlimited", maxStalled: 0, count: 50},
		{name: "below limit", maxStalled: 3, count: 2, wantCalled: true},
		{name: "at limit", maxStalled: 3, count: 3, wantCalled: true, wantErr: errTooManyStalled},
		{name: "above limit", maxStalled: 3, count: 8, wantCalled: true, wantErr: errTooManyStalled},
		{name: "daemon cannot count", maxStalled: 1, err: client.ErrUnsupported, wantCalled: true},
		{name: "count fails", maxStalled: 1, err: errDaemon, wantCalled: true, wantErr: errDaemon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &stalledAdapter{count: tt.count, err: tt.err}
			s := config.Settings{Name: "seedbox", MaxStalled: tt.maxStalled}

			err := checkStalled(context.Background(), adapter, s, "tv")
			if adapter.called != tt.wantCalled {
				t.Errorf("CountStalledTorrents called = %v, want %v", adapter.called, tt.wantCalled)
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("checkStalled() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("checkStalled() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConnectTimeout(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		settings config.Settings
		want     time.Duration
	}{
		{name: "daemon timeout", cfg: &config.Config{Timeout: 10}, settings: config.Settings{Timeout: 3}, want: 3 * time.Second},
		{name: "config timeout", cfg: &config.Config{Timeout: 7}, want: 7 * time.Second},
		{name: "fallback", cfg: &config.Config{}, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connectTimeout(tt.cfg, tt.settings); got != tt.want {
				t.Errorf("connectTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}
