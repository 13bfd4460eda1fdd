// Package savefile reads and writes whole-career snapshots: the three tables
// as one JSON document, optionally zstd or gzip compressed.
package savefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-fm-metrics/internal/model"
	"github.com/pable/go-fm-metrics/internal/storage"
)

// FormatVersion is bumped when the snapshot layout changes incompatibly.
const FormatVersion = 1

// Snapshot is the on-disk document.
type Snapshot struct {
	Version    int                     `json:"version"`
	Name       string                  `json:"name,omitempty"`
	ExportedAt time.Time               `json:"exported_at"`
	Squad      []model.PlayerRecord    `json:"squad"`
	Transfers  []model.TransferRecord  `json:"transfers"`
	MatchStats []model.MatchStatRecord `json:"match_stats"`
}

// Compression selects the snapshot encoding.
type Compression int

const (
	None Compression = iota
	Zstd
	Gzip
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// CompressionFor picks the encoding from a file name: ".zst" is zstd, ".gz"
// is gzip, anything else is plain JSON.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	}
	return None
}

// Capture reads every table from src into a snapshot.
func Capture(src storage.RecordStore, name string) (*Snapshot, error) {
	squad, err := src.Squad()
	if err != nil {
		return nil, fmt.Errorf("read squad: %w", err)
	}
	transfers, err := src.Transfers()
	if err != nil {
		return nil, fmt.Errorf("read transfers: %w", err)
	}
	matches, err := src.MatchStats()
	if err != nil {
		return nil, fmt.Errorf("read match stats: %w", err)
	}
	return &Snapshot{
		Version:    FormatVersion,
		Name:       name,
		ExportedAt: time.Now().UTC(),
		Squad:      squad,
		Transfers:  transfers,
		MatchStats: matches,
	}, nil
}

// Restore overwrites every table in dst with the snapshot's rows.
func (s *Snapshot) Restore(dst storage.RecordStore) error {
	if err := dst.WriteSquad(s.Squad); err != nil {
		return fmt.Errorf("write squad: %w", err)
	}
	if err := dst.WriteTransfers(s.Transfers); err != nil {
		return fmt.Errorf("write transfers: %w", err)
	}
	if err := dst.WriteMatchStats(s.MatchStats); err != nil {
		return fmt.Errorf("write match stats: %w", err)
	}
	return nil
}

// Encode writes s to w with the given compression.
func Encode(w io.Writer, s *Snapshot, c Compression) error {
	var out io.WriteCloser
	switch c {
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		out = enc
	case Gzip:
		out = gzip.NewWriter(w)
	default:
		out = nopCloser{w}
	}
	je := json.NewEncoder(out)
	je.SetIndent("", "  ")
	if err := je.Encode(s); err != nil {
		out.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return out.Close()
}

// Decode reads a snapshot, detecting compression from the stream's magic
// bytes.
func Decode(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	var src io.Reader = br
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var s Snapshot
	if err := json.NewDecoder(src).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version > FormatVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", s.Version, FormatVersion)
	}
	return &s, nil
}

// WriteFile encodes s to path, choosing compression from the extension.
func WriteFile(path string, s *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s, CompressionFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
