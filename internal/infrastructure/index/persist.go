package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// On-disk layout: <path> holds the vectors (little-endian float32, fixed
// header), <path>.meta.json is the sidecar with command texts and
// metadata in insertion order. Both are written to a temp file and
// renamed so the pair is never observed half-written.

const (
	artifactMagic   = "CSVX"
	artifactVersion = 1
)

type sidecarCommand struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

type sidecarFile struct {
	Commands []sidecarCommand       `json:"commands"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SidecarPath returns the metadata path paired with a vector artifact path.
func SidecarPath(path string) string {
	return path + ".meta.json"
}

// Persist writes the index artifact and its sidecar. Vector bytes round-trip
// bit-exactly, so a Load of the written pair reproduces identical search
// results for identical queries.
func (idx *Index) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	if err := writeAtomic(path, idx.writeVectors); err != nil {
		return fmt.Errorf("write vector artifact: %w", err)
	}
	if err := writeAtomic(SidecarPath(path), idx.writeSidecar); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (idx *Index) writeVectors(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(artifactMagic); err != nil {
		return err
	}
	header := []uint32{artifactVersion, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, vec := range idx.vectors {
		for _, f := range vec {
			if err := binary.Write(bw, binary.LittleEndian, math.Float32bits(f)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func (idx *Index) writeSidecar(w io.Writer) error {
	side := sidecarFile{
		Commands: make([]sidecarCommand, len(idx.records)),
		Metadata: idx.Stats().Metadata,
	}
	for i, rec := range idx.records {
		side.Commands[i] = sidecarCommand{
			Text:      rec.Text,
			Timestamp: rec.Meta.Timestamp,
			Source:    rec.Meta.Source,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(side)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a persisted index pair. The sidecar and the artifact must
// agree on record count; a mismatch means the pair is corrupt.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic := make([]byte, len(artifactMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("read artifact header: %w", err)
	}
	if string(magic) != artifactMagic {
		return nil, fmt.Errorf("not a cmdsense index artifact: %q", magic)
	}
	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(br, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("read artifact header: %w", err)
		}
	}
	if version != artifactVersion {
		return nil, fmt.Errorf("unsupported index artifact version %d", version)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			var bits uint32
			if err := binary.Read(br, binary.LittleEndian, &bits); err != nil {
				return nil, fmt.Errorf("read vector %d: %w", i, err)
			}
			vec[j] = math.Float32frombits(bits)
		}
		vectors[i] = vec
	}

	side, err := loadSidecar(SidecarPath(path))
	if err != nil {
		return nil, err
	}
	if len(side.Commands) != int(count) {
		return nil, fmt.Errorf("sidecar has %d commands, artifact has %d vectors",
			len(side.Commands), count)
	}

	records := make([]Record, count)
	for i := range records {
		records[i] = Record{
			Text:   side.Commands[i].Text,
			Vector: vectors[i],
			Meta: RecordMeta{
				Timestamp: side.Commands[i].Timestamp,
				Source:    side.Commands[i].Source,
			},
		}
	}
	return Build(int(dim), records)
}

func loadSidecar(path string) (sidecarFile, error) {
	var side sidecarFile
	data, err := os.ReadFile(path)
	if err != nil {
		return side, fmt.Errorf("read sidecar: %w", err)
	}
	if err := json.Unmarshal(data, &side); err != nil {
		return side, fmt.Errorf("parse sidecar: %w", err)
	}
	return side, nil
}
