// Package metainfo reads the parts of a .torrent file daemonctl cares about.
package metainfo

import (
	"errors"
	"fmt"

	"github.com/zeebo/bencode"
)

// Info is the summary of a torrent's info dictionary
type Info struct {
	Name      string
	TotalSize int64
	FileCount int
}

type file struct {
	Info struct {
		Name   string `bencode:"name"`
		Length int64  `bencode:"length"`
		Files  []struct {
			Length int64    `bencode:"length"`
			Path   []string `bencode:"path"`
		} `bencode:"files"`
	} `bencode:"info"`
}

// Parse decodes torrentData and sums up its size. Single file torrents
// carry a length; multi file torrents list their files.
func Parse(torrentData []byte) (Info, error) {
	var t file
	if err := bencode.DecodeBytes(torrentData, &t); err != nil {
		return Info{}, fmt.Errorf("failed to decode torrent info: %w", err)
	}

	if t.Info.Name == "" {
		return Info{}, errors.New("torrent has no name")
	}

	info := Info{Name: t.Info.Name}
	if t.Info.Length > 0 {
		info.TotalSize = t.Info.Length
		info.FileCount = 1
		return info, nil
	}

	for _, f := range t.Info.Files {
		info.TotalSize += f.Length
	}
	info.FileCount = len(t.Info.Files)

	return info, nil
}

// RequiredSpace is the free space to ask for before adding a torrent of
// size bytes, with 10% headroom.
func RequiredSpace(size int64) uint64 {
	if size <= 0 {
		return 0
	}
	return uint64(float64(size) * 1.1)
}
