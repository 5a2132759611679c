package metainfo

import (
	"testing"

	"github.com/zeebo/bencode"
)

func encode(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := bencode.EncodeBytes(v)
	if err != nil {
		t.Fatalf("failed to encode torrent: %v", err)
	}
	return data
}

func TestParse(t *testing.T) {
	single := encode(t, map[string]interface{}{
		"announce": "http://tracker.example.com/announce",
		"info": map[string]interface{}{
			"name":         "movie.mkv",
			"length":       int64(4 << 30),
			"piece length": 262144,
		},
	})

	multi := encode(t, map[string]interface{}{
		"info": map[string]interface{}{
			"name": "Season 1",
			"files": []map[string]interface{}{
				{"length": 100, "path": []string{"e01.mkv"}},
				{"length": 250, "path": []string{"e02.mkv"}},
				{"length": 50, "path": []string{"extras", "sample.mkv"}},
			},
		},
	})

	tests := []struct {
		name    string
		data    []byte
		want    Info
		wantErr bool
	}{
		{name: "single file", data: single, want: Info{Name: "movie.mkv", TotalSize: 4 << 30, FileCount: 1}},
		{name: "multi file", data: multi, want: Info{Name: "Season 1", TotalSize: 400, FileCount: 3}},
		{name: "garbage", data: []byte("not a torrent"), wantErr: true},
		{name: "no name", data: encode(t, map[string]interface{}{"info": map[string]interface{}{"length": 1}}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRequiredSpace(t *testing.T) {
	tests := []struct {
		size int64
		want uint64
	}{
		{size: 0, want: 0},
		{size: -5, want: 0},
		{size: 1000, want: 1100},
	}

	for _, tt := range tests {
		if got := RequiredSpace(tt.size); got != tt.want {
			t.Errorf("RequiredSpace(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}
