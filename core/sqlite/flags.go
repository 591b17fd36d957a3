package sqlite

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// Memory is the location that opens a private in-memory database.
const Memory = ":memory:"

// OpenFlags selects how Open treats its location. Values other than
// OpenExclusiveLock match the engine's SQLITE_OPEN_* bits.
type OpenFlags int

const (
	OpenReadOnly     OpenFlags = engine.OpenReadOnly
	OpenReadWrite    OpenFlags = engine.OpenReadWrite
	OpenCreate       OpenFlags = engine.OpenCreate
	OpenURI          OpenFlags = engine.OpenURI
	OpenNoMutex      OpenFlags = engine.OpenNoMutex
	OpenFullMutex    OpenFlags = engine.OpenFullMutex
	OpenSharedCache  OpenFlags = engine.OpenSharedCache
	OpenPrivateCache OpenFlags = engine.OpenPrivateCache

	// OpenExclusiveLock holds the file lock from the first access until the
	// connection closes. It is applied after open with a locking_mode pragma.
	OpenExclusiveLock OpenFlags = 1 << 30

	// OpenDefault opens read-write, creating the database if needed.
	OpenDefault = OpenReadWrite | OpenCreate
)

var flagNames = []struct {
	flag OpenFlags
	name string
}{
	{OpenReadOnly, "ReadOnly"},
	{OpenReadWrite, "ReadWrite"},
	{OpenCreate, "Create"},
	{OpenURI, "URI"},
	{OpenNoMutex, "NoMutex"},
	{OpenFullMutex, "FullMutex"},
	{OpenSharedCache, "SharedCache"},
	{OpenPrivateCache, "PrivateCache"},
	{OpenExclusiveLock, "ExclusiveLock"},
}

func (f OpenFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
			f &^= fn.flag
		}
	}
	if f != 0 {
		parts = append(parts, "0x"+strconv.FormatInt(int64(f), 16))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

var knownFlags = func() OpenFlags {
	var all OpenFlags
	for _, fn := range flagNames {
		all |= fn.flag
	}
	return all
}()

// Validate rejects flag sets the engine would either refuse or silently
// reinterpret. The returned error carries CodeMisuse.
func (f OpenFlags) Validate() error {
	switch {
	case f&^knownFlags != 0:
		return misuse("open", "unknown open flags %s", (f &^ knownFlags).String())
	case f&OpenReadOnly != 0 && f&OpenReadWrite != 0:
		return misuse("open", "ReadOnly and ReadWrite are mutually exclusive")
	case f&OpenReadOnly != 0 && f&OpenCreate != 0:
		return misuse("open", "Create requires ReadWrite, not ReadOnly")
	case f&OpenCreate != 0 && f&OpenReadWrite == 0:
		return misuse("open", "Create requires ReadWrite")
	case f&(OpenReadOnly|OpenReadWrite) == 0:
		return misuse("open", "one of ReadOnly or ReadWrite is required")
	case f&OpenSharedCache != 0 && f&OpenPrivateCache != 0:
		return misuse("open", "SharedCache and PrivateCache are mutually exclusive")
	case f&OpenNoMutex != 0 && f&OpenFullMutex != 0:
		return misuse("open", "NoMutex and FullMutex are mutually exclusive")
	}
	return nil
}

// engineFlags strips the bits the engine does not understand.
func (f OpenFlags) engineFlags() int {
	return int(f &^ OpenExclusiveLock)
}
