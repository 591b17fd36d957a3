// Package snapshot writes a database image to a compact, verifiable file
// and restores it.
//
// A snapshot file is:
//
//	magic "SQXSNAP\x00" | uint32 header length (big endian) | JSON Manifest | xz stream
//
// The xz stream holds the image produced by sqlite.Conn.Serialize. The
// manifest records its size and BLAKE3 digest, which Load verifies before
// handing the image to the engine.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Version is the manifest format written by this package.
const Version = 1

var magic = [8]byte{'S', 'Q', 'X', 'S', 'N', 'A', 'P', 0}

// maxHeader bounds the manifest so a damaged length cannot force a huge
// allocation.
const maxHeader = 64 << 10

// Manifest describes the image stored in a snapshot.
type Manifest struct {
	Version       int       `json:"version" yaml:"version"`
	Schema        string    `json:"schema" yaml:"schema"`
	Size          int64     `json:"size" yaml:"size"`
	BLAKE3        string    `json:"blake3" yaml:"blake3"`
	EngineVersion string    `json:"engine_version" yaml:"engine_version"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// timeNow is replaced in tests.
var timeNow = time.Now

// Save serializes schema ("main" when empty) from conn and writes it to w.
func Save(conn *sqlite.Conn, schema string, w io.Writer) (*Manifest, error) {
	if schema == "" {
		schema = "main"
	}
	data, err := conn.Serialize(schema)
	if err != nil {
		return nil, err
	}

	sum := blake3.Sum256(data)
	m := &Manifest{
		Version:       Version,
		Schema:        schema,
		Size:          int64(len(data)),
		BLAKE3:        hex.EncodeToString(sum[:]),
		EngineVersion: conn.Version(),
		CreatedAt:     timeNow().UTC().Truncate(time.Second),
	}
	header, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriter(w)
	bw.Write(magic[:])
	binary.Write(bw, binary.BigEndian, uint32(len(header)))
	bw.Write(header)

	xw, err := xz.NewWriter(bw)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xw.Write(data); err != nil {
		return nil, apperrors.NewIO("write", "snapshot", err)
	}
	if err := xw.Close(); err != nil {
		return nil, apperrors.NewIO("write", "snapshot", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, apperrors.NewIO("write", "snapshot", err)
	}
	return m, nil
}

// ReadManifest reads the header of a snapshot, leaving r positioned at the
// start of the compressed image.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, apperrors.NewParse("snapshot", "", "truncated header")
	}
	if !bytes.Equal(hdr[:8], magic[:]) {
		return nil, apperrors.NewParse("snapshot", "", "not a snapshot file")
	}
	n := binary.BigEndian.Uint32(hdr[8:])
	if n == 0 || n > maxHeader {
		return nil, apperrors.NewParse("snapshot", "", fmt.Sprintf("invalid manifest length %d", n))
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, apperrors.NewParse("snapshot", "", "truncated manifest")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &apperrors.ParseError{Format: "snapshot", Message: "invalid manifest", Err: err}
	}
	if m.Version != Version {
		return nil, apperrors.NewUnsupported(fmt.Sprintf("snapshot version %d", m.Version), fmt.Sprintf("this build reads version %d", Version))
	}
	if m.Size < 0 {
		return nil, apperrors.NewParse("snapshot", "", "negative image size")
	}
	return &m, nil
}

// Load reads a snapshot from r, verifies it, and replaces schema ("main"
// when empty) on conn with the image. The image is checked before conn is
// touched, so a corrupt snapshot leaves the database as it was.
func Load(conn *sqlite.Conn, schema string, r io.Reader) (*Manifest, error) {
	br := bufio.NewReader(r)
	m, err := ReadManifest(br)
	if err != nil {
		return nil, err
	}

	xr, err := xz.NewReader(br)
	if err != nil {
		return nil, &apperrors.ParseError{Format: "snapshot", Message: "invalid xz stream", Err: err}
	}
	data, err := io.ReadAll(io.LimitReader(xr, m.Size+1))
	if err != nil {
		return nil, &apperrors.ParseError{Format: "snapshot", Message: "invalid xz stream", Err: err}
	}
	if int64(len(data)) != m.Size {
		return nil, apperrors.NewParse("snapshot", "", fmt.Sprintf("image is %d bytes, manifest says %d", len(data), m.Size))
	}
	sum := blake3.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != m.BLAKE3 {
		return nil, apperrors.NewIntegrity("snapshot", m.BLAKE3, got)
	}

	if schema == "" {
		schema = "main"
	}
	if err := conn.Deserialize(schema, data); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveFile writes a snapshot of conn to path, replacing it atomically.
func SaveFile(conn *sqlite.Conn, schema, path string) (*Manifest, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, apperrors.NewIO("create", tmp, err)
	}
	m, err := Save(conn, schema, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = apperrors.NewIO("close", tmp, cerr)
	}
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, apperrors.NewIO("rename", path, err)
	}
	return m, nil
}

// LoadFile restores the snapshot at path into conn.
func LoadFile(conn *sqlite.Conn, schema, path string) (*Manifest, error) {
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, apperrors.NewNotFound("snapshot", path, err)
	case err != nil:
		return nil, apperrors.NewIO("open", path, err)
	}
	defer f.Close()

	m, err := Load(conn, schema, f)
	if err != nil {
		var ie *apperrors.IntegrityError
		if errors.As(err, &ie) {
			ie.Path = path
		}
		var pe *apperrors.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return m, nil
}
