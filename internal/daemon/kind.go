// Package daemon describes the torrent daemons daemonctl can talk to: how a
// daemon type is persisted, which port it listens on by default and which
// optional features its protocol supports.
//
// Everything in this package is immutable after init and safe for
// concurrent use.
package daemon

import (
	"fmt"
)

// Kind identifies a daemon protocol family. The zero value is None and
// stands for "no daemon configured".
type Kind uint8

const (
	None Kind = iota
	Deluge
	RTorrent
	QBittorrent
	WatchDir

	kindCount
)

// NoneCode is returned by Code for None and for values outside the known set.
const NoneCode = "none"

// genericPort is used before any daemon type has been picked.
const genericPort = 8080

type kindInfo struct {
	code string
	name string
	port int
	caps capabilityRow
}

// kinds holds every per-kind fact in one place. Adding a Kind means adding a
// row here with a code, a port and a decision for every Capability;
// validateKinds rejects anything left out.
var kinds = [kindCount]kindInfo{
	Deluge: {
		code: "daemon_deluge",
		name: "Deluge",
		port: 8112,
		caps: capabilityRow{
			FileListing:         yes,
			FineDetails:         yes,
			FilePaths:           yes,
			StoppingStarting:    no,
			CustomFolder:        yes,
			SetTransferRates:    yes,
			AddByFile:           yes,
			AddByMagnetURL:      yes,
			RemoveWithData:      yes,
			FilePrioritySetting: yes,
			DateAdded:           yes,
			Labels:              yes,
			SetLabel:            yes,
			SetDownloadLocation: yes,
			SetTrackers:         yes,
			ForceRecheck:        yes,
			ExtraPassword:       yes,
			UsernameForHTTP:     yes,
		},
	},
	RTorrent: {
		code: "daemon_rtorrent",
		name: "rTorrent",
		port: 8080,
		caps: capabilityRow{
			FileListing:         yes,
			FineDetails:         yes,
			FilePaths:           yes,
			StoppingStarting:    yes,
			CustomFolder:        yes,
			SetTransferRates:    yes,
			AddByFile:           yes,
			AddByMagnetURL:      yes,
			RemoveWithData:      yes,
			FilePrioritySetting: yes,
			DateAdded:           yes,
			Labels:              yes,
			SetLabel:            yes,
			SetDownloadLocation: no,
			SetTrackers:         no,
			ForceRecheck:        yes,
			ExtraPassword:       no,
			UsernameForHTTP:     no,
		},
	},
	QBittorrent: {
		code: "daemon_qbittorrent",
		name: "qBittorrent",
		port: 8080,
		caps: capabilityRow{
			FileListing:         yes,
			FineDetails:         yes,
			FilePaths:           yes,
			StoppingStarting:    no,
			CustomFolder:        yes,
			SetTransferRates:    yes,
			AddByFile:           yes,
			AddByMagnetURL:      yes,
			RemoveWithData:      yes,
			FilePrioritySetting: yes,
			DateAdded:           yes,
			Labels:              yes,
			SetLabel:            yes,
			SetDownloadLocation: yes,
			SetTrackers:         no,
			ForceRecheck:        yes,
			ExtraPassword:       no,
			UsernameForHTTP:     no,
		},
	},
	// a folder another process picks .torrent files up from
	WatchDir: {
		code: "daemon_watchdir",
		name: "Watch directory",
		port: genericPort,
		caps: capabilityRow{
			FileListing:         no,
			FineDetails:         no,
			FilePaths:           no,
			StoppingStarting:    no,
			CustomFolder:        no,
			SetTransferRates:    no,
			AddByFile:           yes,
			AddByMagnetURL:      no,
			RemoveWithData:      no,
			FilePrioritySetting: no,
			DateAdded:           no,
			Labels:              no,
			SetLabel:            no,
			SetDownloadLocation: no,
			SetTrackers:         no,
			ForceRecheck:        no,
			ExtraPassword:       no,
			UsernameForHTTP:     no,
		},
	},
}

var kindsByCode map[string]Kind

func init() {
	byCode, err := validateKinds(kinds[:])
	if err != nil {
		panic(err)
	}
	kindsByCode = byCode
}

// validateKinds checks that every concrete kind has a unique code, a port and
// an explicit answer for every capability, and returns the code index.
func validateKinds(table []kindInfo) (map[string]Kind, error) {
	byCode := make(map[string]Kind, len(table))
	for i := 1; i < len(table); i++ {
		k, info := Kind(i), table[i]
		if info.code == "" || info.code == NoneCode {
			return nil, fmt.Errorf("daemon: kind %d has no code", i)
		}
		if prev, ok := byCode[info.code]; ok {
			return nil, fmt.Errorf("daemon: code %q used by kinds %d and %d", info.code, prev, i)
		}
		if info.port <= 0 || info.port > 65535 {
			return nil, fmt.Errorf("daemon: kind %s has invalid default port %d", info.code, info.port)
		}
		for c, s := range info.caps {
			if s == undecided {
				return nil, fmt.Errorf("daemon: kind %s has no decision for capability %s", info.code, Capability(c))
			}
		}
		byCode[info.code] = k
	}
	return byCode, nil
}

// Kinds returns all concrete kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := None + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a concrete kind.
func (k Kind) Valid() bool {
	return k > None && k < kindCount
}

// Code returns the identifier k is persisted as, or NoneCode.
func (k Kind) Code() string {
	if !k.Valid() {
		return NoneCode
	}
	return kinds[k].code
}

func (k Kind) String() string {
	if !k.Valid() {
		return NoneCode
	}
	return kinds[k].name
}

// ParseKind resolves a persisted identifier such as "daemon_deluge".
// Empty and unrecognized identifiers return None and false; a saved type
// that no longer exists is for the caller to handle.
func ParseKind(code string) (Kind, bool) {
	if code == "" {
		return None, false
	}
	k, ok := kindsByCode[code]
	if !ok {
		return None, false
	}
	return k, true
}

// DefaultPort returns the port to assume when the user has not set one.
// None and unknown kinds get the generic 8080.
func DefaultPort(k Kind) int {
	if !k.Valid() {
		return genericPort
	}
	return kinds[k].port
}
