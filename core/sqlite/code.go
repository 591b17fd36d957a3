package sqlite

import (
	"fmt"
	"slices"
)

// ResultCode is an engine status value. The low byte is the primary class;
// extended codes carry a refinement in the higher bits.
//
// Any int converts to a ResultCode and back without loss, including codes
// the table below does not know about.
type ResultCode int

// Primary result codes.
const (
	CodeOK         ResultCode = 0
	CodeError      ResultCode = 1
	CodeInternal   ResultCode = 2
	CodePerm       ResultCode = 3
	CodeAbort      ResultCode = 4
	CodeBusy       ResultCode = 5
	CodeLocked     ResultCode = 6
	CodeNoMem      ResultCode = 7
	CodeReadOnly   ResultCode = 8
	CodeInterrupt  ResultCode = 9
	CodeIOErr      ResultCode = 10
	CodeCorrupt    ResultCode = 11
	CodeNotFound   ResultCode = 12
	CodeFull       ResultCode = 13
	CodeCantOpen   ResultCode = 14
	CodeProtocol   ResultCode = 15
	CodeEmpty      ResultCode = 16
	CodeSchema     ResultCode = 17
	CodeTooBig     ResultCode = 18
	CodeConstraint ResultCode = 19
	CodeMismatch   ResultCode = 20
	CodeMisuse     ResultCode = 21
	CodeNoLFS      ResultCode = 22
	CodeAuth       ResultCode = 23
	CodeFormat     ResultCode = 24
	CodeRange      ResultCode = 25
	CodeNotADB     ResultCode = 26
	CodeNotice     ResultCode = 27
	CodeWarning    ResultCode = 28
	CodeRow        ResultCode = 100
	CodeDone       ResultCode = 101
)

// Extended result codes.
const (
	CodeErrorMissingCollSeq ResultCode = CodeError | 1<<8
	CodeErrorRetry          ResultCode = CodeError | 2<<8
	CodeErrorSnapshot       ResultCode = CodeError | 3<<8

	CodeIOErrRead              ResultCode = CodeIOErr | 1<<8
	CodeIOErrShortRead         ResultCode = CodeIOErr | 2<<8
	CodeIOErrWrite             ResultCode = CodeIOErr | 3<<8
	CodeIOErrFsync             ResultCode = CodeIOErr | 4<<8
	CodeIOErrDirFsync          ResultCode = CodeIOErr | 5<<8
	CodeIOErrTruncate          ResultCode = CodeIOErr | 6<<8
	CodeIOErrFstat             ResultCode = CodeIOErr | 7<<8
	CodeIOErrUnlock            ResultCode = CodeIOErr | 8<<8
	CodeIOErrRdLock            ResultCode = CodeIOErr | 9<<8
	CodeIOErrDelete            ResultCode = CodeIOErr | 10<<8
	CodeIOErrBlocked           ResultCode = CodeIOErr | 11<<8
	CodeIOErrNoMem             ResultCode = CodeIOErr | 12<<8
	CodeIOErrAccess            ResultCode = CodeIOErr | 13<<8
	CodeIOErrCheckReservedLock ResultCode = CodeIOErr | 14<<8
	CodeIOErrLock              ResultCode = CodeIOErr | 15<<8
	CodeIOErrClose             ResultCode = CodeIOErr | 16<<8
	CodeIOErrDirClose          ResultCode = CodeIOErr | 17<<8
	CodeIOErrShmOpen           ResultCode = CodeIOErr | 18<<8
	CodeIOErrShmSize           ResultCode = CodeIOErr | 19<<8
	CodeIOErrShmLock           ResultCode = CodeIOErr | 20<<8
	CodeIOErrShmMap            ResultCode = CodeIOErr | 21<<8
	CodeIOErrSeek              ResultCode = CodeIOErr | 22<<8
	CodeIOErrDeleteNoEnt       ResultCode = CodeIOErr | 23<<8
	CodeIOErrMmap              ResultCode = CodeIOErr | 24<<8
	CodeIOErrGetTempPath       ResultCode = CodeIOErr | 25<<8
	CodeIOErrConvPath          ResultCode = CodeIOErr | 26<<8
	CodeIOErrVNode             ResultCode = CodeIOErr | 27<<8
	CodeIOErrAuth              ResultCode = CodeIOErr | 28<<8
	CodeIOErrBeginAtomic       ResultCode = CodeIOErr | 29<<8
	CodeIOErrCommitAtomic      ResultCode = CodeIOErr | 30<<8
	CodeIOErrRollbackAtomic    ResultCode = CodeIOErr | 31<<8
	CodeIOErrData              ResultCode = CodeIOErr | 32<<8
	CodeIOErrCorruptFS         ResultCode = CodeIOErr | 33<<8
	CodeIOErrInPage            ResultCode = CodeIOErr | 34<<8

	CodeLockedSharedCache ResultCode = CodeLocked | 1<<8
	CodeLockedVTab        ResultCode = CodeLocked | 2<<8

	CodeBusyRecovery ResultCode = CodeBusy | 1<<8
	CodeBusySnapshot ResultCode = CodeBusy | 2<<8
	CodeBusyTimeout  ResultCode = CodeBusy | 3<<8

	CodeCantOpenNoTempDir ResultCode = CodeCantOpen | 1<<8
	CodeCantOpenIsDir     ResultCode = CodeCantOpen | 2<<8
	CodeCantOpenFullPath  ResultCode = CodeCantOpen | 3<<8
	CodeCantOpenConvPath  ResultCode = CodeCantOpen | 4<<8
	CodeCantOpenDirtyWAL  ResultCode = CodeCantOpen | 5<<8
	CodeCantOpenSymlink   ResultCode = CodeCantOpen | 6<<8

	CodeCorruptVTab     ResultCode = CodeCorrupt | 1<<8
	CodeCorruptSequence ResultCode = CodeCorrupt | 2<<8
	CodeCorruptIndex    ResultCode = CodeCorrupt | 3<<8

	CodeReadOnlyRecovery  ResultCode = CodeReadOnly | 1<<8
	CodeReadOnlyCantLock  ResultCode = CodeReadOnly | 2<<8
	CodeReadOnlyRollback  ResultCode = CodeReadOnly | 3<<8
	CodeReadOnlyDBMoved   ResultCode = CodeReadOnly | 4<<8
	CodeReadOnlyCantInit  ResultCode = CodeReadOnly | 5<<8
	CodeReadOnlyDirectory ResultCode = CodeReadOnly | 6<<8

	CodeAbortRollback ResultCode = CodeAbort | 2<<8

	CodeConstraintCheck      ResultCode = CodeConstraint | 1<<8
	CodeConstraintCommitHook ResultCode = CodeConstraint | 2<<8
	CodeConstraintForeignKey ResultCode = CodeConstraint | 3<<8
	CodeConstraintFunction   ResultCode = CodeConstraint | 4<<8
	CodeConstraintNotNull    ResultCode = CodeConstraint | 5<<8
	CodeConstraintPrimaryKey ResultCode = CodeConstraint | 6<<8
	CodeConstraintTrigger    ResultCode = CodeConstraint | 7<<8
	CodeConstraintUnique     ResultCode = CodeConstraint | 8<<8
	CodeConstraintVTab       ResultCode = CodeConstraint | 9<<8
	CodeConstraintRowID      ResultCode = CodeConstraint | 10<<8
	CodeConstraintPinned     ResultCode = CodeConstraint | 11<<8
	CodeConstraintDataType   ResultCode = CodeConstraint | 12<<8

	CodeNoticeRecoverWAL      ResultCode = CodeNotice | 1<<8
	CodeNoticeRecoverRollback ResultCode = CodeNotice | 2<<8
	CodeNoticeRBU             ResultCode = CodeNotice | 3<<8

	CodeWarningAutoIndex ResultCode = CodeWarning | 1<<8

	CodeAuthUser ResultCode = CodeAuth | 1<<8

	CodeOKLoadPermanently ResultCode = CodeOK | 1<<8
	CodeOKSymlink         ResultCode = CodeOK | 2<<8
)

type codeInfo struct {
	name string
	msg  string
}

// codeTable is the single source of names and messages. Primary messages
// match the engine's sqlite3_errstr text.
var codeTable = map[ResultCode]codeInfo{
	CodeOK:         {"SQLITE_OK", "not an error"},
	CodeError:      {"SQLITE_ERROR", "SQL logic error"},
	CodeInternal:   {"SQLITE_INTERNAL", "internal logic error"},
	CodePerm:       {"SQLITE_PERM", "access permission denied"},
	CodeAbort:      {"SQLITE_ABORT", "query aborted"},
	CodeBusy:       {"SQLITE_BUSY", "database is locked"},
	CodeLocked:     {"SQLITE_LOCKED", "database table is locked"},
	CodeNoMem:      {"SQLITE_NOMEM", "out of memory"},
	CodeReadOnly:   {"SQLITE_READONLY", "attempt to write a readonly database"},
	CodeInterrupt:  {"SQLITE_INTERRUPT", "interrupted"},
	CodeIOErr:      {"SQLITE_IOERR", "disk I/O error"},
	CodeCorrupt:    {"SQLITE_CORRUPT", "database disk image is malformed"},
	CodeNotFound:   {"SQLITE_NOTFOUND", "unknown operation"},
	CodeFull:       {"SQLITE_FULL", "database or disk is full"},
	CodeCantOpen:   {"SQLITE_CANTOPEN", "unable to open database file"},
	CodeProtocol:   {"SQLITE_PROTOCOL", "locking protocol"},
	CodeEmpty:      {"SQLITE_EMPTY", "internal use only"},
	CodeSchema:     {"SQLITE_SCHEMA", "database schema has changed"},
	CodeTooBig:     {"SQLITE_TOOBIG", "string or blob too big"},
	CodeConstraint: {"SQLITE_CONSTRAINT", "constraint failed"},
	CodeMismatch:   {"SQLITE_MISMATCH", "datatype mismatch"},
	CodeMisuse:     {"SQLITE_MISUSE", "bad parameter or other API misuse"},
	CodeNoLFS:      {"SQLITE_NOLFS", "large file support is disabled"},
	CodeAuth:       {"SQLITE_AUTH", "authorization denied"},
	CodeFormat:     {"SQLITE_FORMAT", "auxiliary database format error"},
	CodeRange:      {"SQLITE_RANGE", "column index out of range"},
	CodeNotADB:     {"SQLITE_NOTADB", "file is not a database"},
	CodeNotice:     {"SQLITE_NOTICE", "notification message"},
	CodeWarning:    {"SQLITE_WARNING", "warning message"},
	CodeRow:        {"SQLITE_ROW", "another row available"},
	CodeDone:       {"SQLITE_DONE", "no more rows available"},

	CodeErrorMissingCollSeq: {"SQLITE_ERROR_MISSING_COLLSEQ", "missing collating sequence"},
	CodeErrorRetry:          {"SQLITE_ERROR_RETRY", "prepare should be retried"},
	CodeErrorSnapshot:       {"SQLITE_ERROR_SNAPSHOT", "snapshot no longer available"},

	CodeIOErrRead:              {"SQLITE_IOERR_READ", "disk I/O error during read"},
	CodeIOErrShortRead:         {"SQLITE_IOERR_SHORT_READ", "short read from disk"},
	CodeIOErrWrite:             {"SQLITE_IOERR_WRITE", "disk I/O error during write"},
	CodeIOErrFsync:             {"SQLITE_IOERR_FSYNC", "disk I/O error during fsync"},
	CodeIOErrDirFsync:          {"SQLITE_IOERR_DIR_FSYNC", "disk I/O error syncing directory"},
	CodeIOErrTruncate:          {"SQLITE_IOERR_TRUNCATE", "disk I/O error during truncate"},
	CodeIOErrFstat:             {"SQLITE_IOERR_FSTAT", "disk I/O error during fstat"},
	CodeIOErrUnlock:            {"SQLITE_IOERR_UNLOCK", "disk I/O error releasing lock"},
	CodeIOErrRdLock:            {"SQLITE_IOERR_RDLOCK", "disk I/O error acquiring read lock"},
	CodeIOErrDelete:            {"SQLITE_IOERR_DELETE", "disk I/O error deleting file"},
	CodeIOErrBlocked:           {"SQLITE_IOERR_BLOCKED", "I/O blocked"},
	CodeIOErrNoMem:             {"SQLITE_IOERR_NOMEM", "out of memory during I/O"},
	CodeIOErrAccess:            {"SQLITE_IOERR_ACCESS", "disk I/O error checking access"},
	CodeIOErrCheckReservedLock: {"SQLITE_IOERR_CHECKRESERVEDLOCK", "disk I/O error checking reserved lock"},
	CodeIOErrLock:              {"SQLITE_IOERR_LOCK", "disk I/O error in advisory lock"},
	CodeIOErrClose:             {"SQLITE_IOERR_CLOSE", "disk I/O error closing file"},
	CodeIOErrDirClose:          {"SQLITE_IOERR_DIR_CLOSE", "disk I/O error closing directory"},
	CodeIOErrShmOpen:           {"SQLITE_IOERR_SHMOPEN", "disk I/O error opening shared memory"},
	CodeIOErrShmSize:           {"SQLITE_IOERR_SHMSIZE", "disk I/O error sizing shared memory"},
	CodeIOErrShmLock:           {"SQLITE_IOERR_SHMLOCK", "disk I/O error locking shared memory"},
	CodeIOErrShmMap:            {"SQLITE_IOERR_SHMMAP", "disk I/O error mapping shared memory"},
	CodeIOErrSeek:              {"SQLITE_IOERR_SEEK", "disk I/O error during seek"},
	CodeIOErrDeleteNoEnt:       {"SQLITE_IOERR_DELETE_NOENT", "file to delete does not exist"},
	CodeIOErrMmap:              {"SQLITE_IOERR_MMAP", "disk I/O error in memory map"},
	CodeIOErrGetTempPath:       {"SQLITE_IOERR_GETTEMPPATH", "cannot find temporary directory"},
	CodeIOErrConvPath:          {"SQLITE_IOERR_CONVPATH", "path conversion failed"},
	CodeIOErrVNode:             {"SQLITE_IOERR_VNODE", "file vnode changed"},
	CodeIOErrAuth:              {"SQLITE_IOERR_AUTH", "I/O authorization failed"},
	CodeIOErrBeginAtomic:       {"SQLITE_IOERR_BEGIN_ATOMIC", "cannot begin atomic write"},
	CodeIOErrCommitAtomic:      {"SQLITE_IOERR_COMMIT_ATOMIC", "cannot commit atomic write"},
	CodeIOErrRollbackAtomic:    {"SQLITE_IOERR_ROLLBACK_ATOMIC", "cannot roll back atomic write"},
	CodeIOErrData:              {"SQLITE_IOERR_DATA", "page checksum mismatch"},
	CodeIOErrCorruptFS:         {"SQLITE_IOERR_CORRUPTFS", "filesystem corruption detected"},
	CodeIOErrInPage:            {"SQLITE_IOERR_IN_PAGE", "I/O error reading memory-mapped page"},

	CodeLockedSharedCache: {"SQLITE_LOCKED_SHAREDCACHE", "locked by another shared-cache connection"},
	CodeLockedVTab:        {"SQLITE_LOCKED_VTAB", "virtual table is locked"},

	CodeBusyRecovery: {"SQLITE_BUSY_RECOVERY", "database is locked for WAL recovery"},
	CodeBusySnapshot: {"SQLITE_BUSY_SNAPSHOT", "read snapshot is stale"},
	CodeBusyTimeout:  {"SQLITE_BUSY_TIMEOUT", "timed out waiting for lock"},

	CodeCantOpenNoTempDir: {"SQLITE_CANTOPEN_NOTEMPDIR", "no temporary directory"},
	CodeCantOpenIsDir:     {"SQLITE_CANTOPEN_ISDIR", "database path is a directory"},
	CodeCantOpenFullPath:  {"SQLITE_CANTOPEN_FULLPATH", "cannot resolve full path"},
	CodeCantOpenConvPath:  {"SQLITE_CANTOPEN_CONVPATH", "path conversion failed"},
	CodeCantOpenDirtyWAL:  {"SQLITE_CANTOPEN_DIRTYWAL", "dirty write-ahead log"},
	CodeCantOpenSymlink:   {"SQLITE_CANTOPEN_SYMLINK", "database path is a symbolic link"},

	CodeCorruptVTab:     {"SQLITE_CORRUPT_VTAB", "virtual table content is corrupt"},
	CodeCorruptSequence: {"SQLITE_CORRUPT_SEQUENCE", "sqlite_sequence table is corrupt"},
	CodeCorruptIndex:    {"SQLITE_CORRUPT_INDEX", "index is corrupt"},

	CodeReadOnlyRecovery:  {"SQLITE_READONLY_RECOVERY", "read-only database needs WAL recovery"},
	CodeReadOnlyCantLock:  {"SQLITE_READONLY_CANTLOCK", "cannot lock read-only shared memory"},
	CodeReadOnlyRollback:  {"SQLITE_READONLY_ROLLBACK", "hot journal needs rollback"},
	CodeReadOnlyDBMoved:   {"SQLITE_READONLY_DBMOVED", "database file was moved"},
	CodeReadOnlyCantInit:  {"SQLITE_READONLY_CANTINIT", "cannot initialize shared memory"},
	CodeReadOnlyDirectory: {"SQLITE_READONLY_DIRECTORY", "database directory is read-only"},

	CodeAbortRollback: {"SQLITE_ABORT_ROLLBACK", "statement aborted by rollback"},

	CodeConstraintCheck:      {"SQLITE_CONSTRAINT_CHECK", "CHECK constraint failed"},
	CodeConstraintCommitHook: {"SQLITE_CONSTRAINT_COMMITHOOK", "commit hook vetoed the commit"},
	CodeConstraintForeignKey: {"SQLITE_CONSTRAINT_FOREIGNKEY", "FOREIGN KEY constraint failed"},
	CodeConstraintFunction:   {"SQLITE_CONSTRAINT_FUNCTION", "function constraint failed"},
	CodeConstraintNotNull:    {"SQLITE_CONSTRAINT_NOTNULL", "NOT NULL constraint failed"},
	CodeConstraintPrimaryKey: {"SQLITE_CONSTRAINT_PRIMARYKEY", "PRIMARY KEY constraint failed"},
	CodeConstraintTrigger:    {"SQLITE_CONSTRAINT_TRIGGER", "trigger raised a constraint error"},
	CodeConstraintUnique:     {"SQLITE_CONSTRAINT_UNIQUE", "UNIQUE constraint failed"},
	CodeConstraintVTab:       {"SQLITE_CONSTRAINT_VTAB", "virtual table constraint failed"},
	CodeConstraintRowID:      {"SQLITE_CONSTRAINT_ROWID", "rowid is not unique"},
	CodeConstraintPinned:     {"SQLITE_CONSTRAINT_PINNED", "row is pinned by a trigger"},
	CodeConstraintDataType:   {"SQLITE_CONSTRAINT_DATATYPE", "value does not match STRICT column type"},

	CodeNoticeRecoverWAL:      {"SQLITE_NOTICE_RECOVER_WAL", "recovered frames from WAL"},
	CodeNoticeRecoverRollback: {"SQLITE_NOTICE_RECOVER_ROLLBACK", "rolled back hot journal"},
	CodeNoticeRBU:             {"SQLITE_NOTICE_RBU", "RBU update notice"},

	CodeWarningAutoIndex: {"SQLITE_WARNING_AUTOINDEX", "automatic index created"},

	CodeAuthUser: {"SQLITE_AUTH_USER", "user authentication failed"},

	CodeOKLoadPermanently: {"SQLITE_OK_LOAD_PERMANENTLY", "extension loaded permanently"},
	CodeOKSymlink:         {"SQLITE_OK_SYMLINK", "path resolved through symbolic link"},
}

// Category groups result codes by how a caller should react to them.
type Category int

const (
	CategoryUnrecognized Category = iota
	CategorySuccess
	CategoryMisuse
	CategoryContention
	CategoryConstraint
	CategoryIO
	CategoryCorruption
	CategoryResource
	CategoryReadOnly
	CategoryPermission
	CategoryNotice
	CategoryOther
)

var categoryNames = [...]string{
	CategoryUnrecognized: "unrecognized",
	CategorySuccess:      "success",
	CategoryMisuse:       "misuse",
	CategoryContention:   "contention",
	CategoryConstraint:   "constraint",
	CategoryIO:           "io",
	CategoryCorruption:   "corruption",
	CategoryResource:     "resource",
	CategoryReadOnly:     "readonly",
	CategoryPermission:   "permission",
	CategoryNotice:       "notice",
	CategoryOther:        "other",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory returns the category named s, as printed by String.
func ParseCategory(s string) (Category, bool) {
	i := slices.Index(categoryNames[:], s)
	if i < 0 {
		return CategoryUnrecognized, false
	}
	return Category(i), true
}

var primaryCategory = map[ResultCode]Category{
	CodeOK:         CategorySuccess,
	CodeRow:        CategorySuccess,
	CodeDone:       CategorySuccess,
	CodeMisuse:     CategoryMisuse,
	CodeRange:      CategoryMisuse,
	CodeBusy:       CategoryContention,
	CodeLocked:     CategoryContention,
	CodeConstraint: CategoryConstraint,
	CodeIOErr:      CategoryIO,
	CodeFull:       CategoryIO,
	CodeNoLFS:      CategoryIO,
	CodeCantOpen:   CategoryIO,
	CodeProtocol:   CategoryIO,
	CodeCorrupt:    CategoryCorruption,
	CodeNotADB:     CategoryCorruption,
	CodeFormat:     CategoryCorruption,
	CodeNoMem:      CategoryResource,
	CodeTooBig:     CategoryResource,
	CodeReadOnly:   CategoryReadOnly,
	CodePerm:       CategoryPermission,
	CodeAuth:       CategoryPermission,
	CodeNotice:     CategoryNotice,
	CodeWarning:    CategoryNotice,
}

// Int returns the raw engine status.
func (c ResultCode) Int() int { return int(c) }

// Primary returns the primary class of c.
func (c ResultCode) Primary() ResultCode { return c & 0xff }

// Extended returns the refinement bits of c, or 0 for a primary code.
func (c ResultCode) Extended() int { return int(c) >> 8 }

// Known reports whether c appears in the result code table.
func (c ResultCode) Known() bool {
	_, ok := codeTable[c]
	return ok
}

// Name returns the engine's symbolic name, such as "SQLITE_BUSY_TIMEOUT".
// Codes outside the table render as "UNRECOGNIZED(n)".
func (c ResultCode) Name() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return fmt.Sprintf("UNRECOGNIZED(%d)", int(c))
}

// Message returns a short English description of c.
func (c ResultCode) Message() string {
	if info, ok := codeTable[c]; ok {
		return info.msg
	}
	return fmt.Sprintf("unrecognized result code %d", int(c))
}

// IsError reports whether c signals a failure. OK, Row and Done are not
// errors, and neither are the OK_* refinements (CodeOKLoadPermanently,
// CodeOKSymlink): any code whose primary class is OK counts as success.
// Notices, warnings and unrecognized codes are errors.
func (c ResultCode) IsError() bool {
	return c.Category() != CategorySuccess
}

// Category classifies c. Unrecognized codes are never guessed into a class,
// even when their low byte names a known primary code.
func (c ResultCode) Category() Category {
	if !c.Known() {
		return CategoryUnrecognized
	}
	if cat, ok := primaryCategory[c.Primary()]; ok {
		return cat
	}
	return CategoryOther
}

// Retryable reports whether the failure is lock contention that may succeed
// if the caller tries again later.
func (c ResultCode) Retryable() bool {
	return c.Category() == CategoryContention
}

func (c ResultCode) String() string { return c.Name() }

// Error makes ResultCode usable as an error value and as an errors.Is target.
func (c ResultCode) Error() string {
	return "sqlite: " + c.Message() + " (" + c.Name() + ")"
}

// Is matches target when target is the same code, or when target is a
// primary code and c belongs to its class.
func (c ResultCode) Is(target error) bool {
	t, ok := target.(ResultCode)
	if !ok {
		return false
	}
	return c == t || (t == t.Primary() && c.Primary() == t)
}

// All returns every code in the table in ascending numeric order.
func All() []ResultCode {
	codes := make([]ResultCode, 0, len(codeTable))
	for c := range codeTable {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}
