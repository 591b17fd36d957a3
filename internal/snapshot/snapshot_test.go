package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ulikunitz/xz"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

func openMemory(t *testing.T) *sqlite.Conn {
	t.Helper()
	conn, err := sqlite.Open(sqlite.Memory, sqlite.OpenDefault)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seed(t *testing.T, conn *sqlite.Conn) {
	t.Helper()
	err := conn.ExecScript(`CREATE TABLE books (name TEXT, chapters INTEGER);
		INSERT INTO books VALUES ('Genesis', 50), ('Ruth', 4), ('Jude', 1);`)
	if err != nil {
		t.Fatalf("ExecScript() error = %v", err)
	}
}

func sumChapters(t *testing.T, conn *sqlite.Conn) int64 {
	t.Helper()
	s, err := conn.Prepare("SELECT sum(chapters) FROM books")
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	defer s.Finalize()
	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Int64(0)
	return n
}

// encode builds a snapshot by hand so tests can damage any part of it.
func encode(t *testing.T, m Manifest, image []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	header, _ := json.Marshal(m)
	buf.Write(magic[:])
	binary.Write(&buf, binary.BigEndian, uint32(len(header)))
	buf.Write(header)
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	xw.Write(image)
	xw.Close()
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fixed := time.Date(2025, 5, 1, 12, 30, 45, 999, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = time.Now }()

	src := openMemory(t)
	seed(t, src)

	var buf bytes.Buffer
	m, err := Save(src, "", &buf)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if m.Version != Version || m.Schema != "main" || m.Size == 0 || len(m.BLAKE3) != 64 {
		t.Errorf("manifest = %+v", m)
	}
	if !m.CreatedAt.Equal(fixed.Truncate(time.Second)) {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if m.EngineVersion != src.Version() {
		t.Errorf("EngineVersion = %q, want %q", m.EngineVersion, src.Version())
	}
	if int64(buf.Len()) >= m.Size {
		t.Errorf("snapshot is %d bytes for a %d byte image; expected compression", buf.Len(), m.Size)
	}

	dst := openMemory(t)
	got, err := Load(dst, "", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BLAKE3 != m.BLAKE3 || got.Size != m.Size || !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("Load() manifest = %+v, want %+v", got, m)
	}
	if n := sumChapters(t, dst); n != 55 {
		t.Errorf("restored sum = %d, want 55", n)
	}
}

func TestReadManifest(t *testing.T) {
	src := openMemory(t)
	seed(t, src)
	var buf bytes.Buffer
	want, err := Save(src, "main", &buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadManifest(&buf)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if got.BLAKE3 != want.BLAKE3 || got.Size != want.Size {
		t.Errorf("ReadManifest() = %+v, want %+v", got, want)
	}
}

func TestLoadRejectsDamage(t *testing.T) {
	src := openMemory(t)
	seed(t, src)
	var good bytes.Buffer
	m, err := Save(src, "", &good)
	if err != nil {
		t.Fatal(err)
	}
	image, err := src.Serialize("main")
	if err != nil {
		t.Fatal(err)
	}

	wrongSum := *m
	wrongSum.BLAKE3 = "00" + m.BLAKE3[2:]
	wrongSize := *m
	wrongSize.Size = m.Size - 1
	future := *m
	future.Version = Version + 1

	truncated := good.Bytes()[:good.Len()-20]
	badMagic := append([]byte("NOTASNAP"), good.Bytes()[8:]...)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, apperrors.ErrInvalidInput},
		{"bad magic", badMagic, apperrors.ErrInvalidInput},
		{"truncated stream", truncated, apperrors.ErrInvalidInput},
		{"checksum", encode(t, wrongSum, image), apperrors.ErrCorrupt},
		{"size", encode(t, wrongSize, image), apperrors.ErrInvalidInput},
		{"version", encode(t, future, image), apperrors.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := openMemory(t)
			seed(t, dst)
			if err := dst.Exec("DELETE FROM books WHERE name = 'Jude'"); err != nil {
				t.Fatal(err)
			}

			_, err := Load(dst, "", bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
			// The target database is untouched.
			if n := sumChapters(t, dst); n != 54 {
				t.Errorf("sum after failed load = %d, want 54", n)
			}
		})
	}
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.snap")

	src := openMemory(t)
	seed(t, src)
	if _, err := SaveFile(src, "", path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	dst := openMemory(t)
	if _, err := LoadFile(dst, "", path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if n := sumChapters(t, dst); n != 55 {
		t.Errorf("restored sum = %d, want 55", n)
	}

	_, err := LoadFile(dst, "", filepath.Join(dir, "missing.snap"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("LoadFile(missing) error = %v, want ErrNotFound", err)
	}

	garbage := filepath.Join(dir, "garbage.snap")
	os.WriteFile(garbage, []byte("garbage"), 0o600)
	_, err = LoadFile(dst, "", garbage)
	var pe *apperrors.ParseError
	if !errors.As(err, &pe) || pe.Path != garbage {
		t.Errorf("LoadFile(garbage) error = %v, want ParseError naming the file", err)
	}

	if _, err := SaveFile(src, "", filepath.Join(dir, "no", "such", "dir.snap")); err == nil {
		t.Error("SaveFile() into a missing directory succeeded")
	}
}
