package client

import (
	"fmt"

	"github.com/s0up4200/daemonctl/internal/config"
	"github.com/s0up4200/daemonctl/internal/daemon"
)

type constructor func(config.Settings) Adapter

var constructors = map[daemon.Kind]constructor{
	daemon.Deluge:      func(s config.Settings) Adapter { return NewDelugeClient(s) },
	daemon.RTorrent:    func(s config.Settings) Adapter { return NewRTorrentClient(s) },
	daemon.QBittorrent: func(s config.Settings) Adapter { return NewQBitClient(s) },
	daemon.WatchDir:    func(s config.Settings) Adapter { return NewWatchDirClient(s) },
}

func init() {
	if err := checkConstructors(constructors); err != nil {
		panic(err)
	}
}

func checkConstructors(table map[daemon.Kind]constructor) error {
	for _, k := range daemon.Kinds() {
		if table[k] == nil {
			return fmt.Errorf("client: no adapter registered for %s", k.Code())
		}
	}
	if len(table) != len(daemon.Kinds()) {
		return fmt.Errorf("client: adapters registered for unknown kinds")
	}
	return nil
}

// New returns the adapter for kind, bound to settings. It does not connect.
// kind must be a concrete kind; resolving daemon.None is the caller's job and
// New panics if given one.
func New(kind daemon.Kind, settings config.Settings) Adapter {
	ctor, ok := constructors[kind]
	if !ok {
		panic(fmt.Sprintf("client: no adapter for daemon kind %q", kind.Code()))
	}
	return ctor(settings)
}

// FromSettings resolves the daemon type in settings and returns its adapter.
func FromSettings(settings config.Settings) (Adapter, error) {
	kind, ok := settings.Kind()
	if !ok {
		return nil, fmt.Errorf("daemon %s has unknown type %q", settings.Name, settings.Type)
	}
	return New(kind, settings), nil
}
