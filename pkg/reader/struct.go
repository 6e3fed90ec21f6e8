package reader

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates the stream does not conform to the InstallShield v3 layout
	ErrFormat = errors.New("isv3: invalid archive format")
	// ErrSignature indicates the header signature is not the InstallShield v3 magic
	ErrSignature = fmt.Errorf("%w: bad signature", ErrFormat)
	// ErrTOCAddress indicates the table of contents address lies outside the stream
	ErrTOCAddress = fmt.Errorf("%w: table of contents address out of range", ErrFormat)
	// ErrNegativeSkip indicates a record whose chunk size is smaller than its decoded fields
	ErrNegativeSkip = fmt.Errorf("%w: chunk size smaller than record fields", ErrFormat)
	// ErrTruncated indicates a read or skip past the end of the stream
	ErrTruncated = errors.New("isv3: truncated stream")
	// ErrNotFound indicates the requested path has no entry in the archive
	ErrNotFound = errors.New("isv3: file not found in archive")
)

const (
	// Signature is the magic value at the start of every archive.
	Signature uint32 = 0x8C655D13

	// dataStart is the absolute offset of the data region. It is larger than
	// headerLen; the bytes in between are not modeled.
	dataStart = 255

	headerLen = 51

	// file_count, chunk_size, name_len
	dirRecordFixedLen = 2 + 2 + 2
	// reserved, compressed_size, reserved, chunk_size, reserved, name_len
	fileRecordFixedLen = 7 + 4 + 12 + 2 + 4 + 1

	// PathSeparator joins a directory name and a file name in a full path.
	PathSeparator = `\`
)

// Header is the fixed archive header. Reserved fields are skipped, not decoded.
type Header struct {
	Signature   uint32
	FileCount   uint16
	ArchiveSize uint32
	TOCAddress  uint32
	DirCount    uint16
}

// Directory is a directory record of the table of contents.
type Directory struct {
	Name string

	// FileCount is the number of file records belonging to this directory.
	FileCount uint16
}

// File describes an entry within an archive.
type File struct {
	// Name is the file name, local to its directory.
	Name string

	// FullPath is the directory name and Name joined with a backslash,
	// or just Name when the directory name is empty.
	FullPath string

	CompressedSize uint32

	// DataOffset is the position of the compressed payload relative to the
	// start of the data region. It is not stored in the archive; it is the
	// sum of the compressed sizes of all entries preceding this one.
	DataOffset uint32
}

// OffsetError records a failure and the absolute stream offset where the
// failing operation started.
type OffsetError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("isv3: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error { return e.Err }

// DecompressError is returned by Extract when the payload of an entry cannot
// be exploded. Code is the status reported by the decompressor.
type DecompressError struct {
	Path string
	Code int
	Err  error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("isv3: decompressing %q failed (code %d)", e.Path, e.Code)
}

func (e *DecompressError) Unwrap() error { return e.Err }
