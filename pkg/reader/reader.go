package reader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alec-rabold/shieldspy/pkg/explode"
	log "github.com/sirupsen/logrus"
)

// Reader serves entries from an InstallShield v3 archive.
//
// The table of contents is parsed once by NewReader. The underlying stream
// has a single position shared by every Extract call, so a Reader must not
// be used by more than one goroutine at a time.
type Reader struct {
	c      *cursor
	header Header
	dirs   []Directory
	files  []*File
	index  map[string]int // full path -> position in files
}

// ReadCloser is a Reader that owns the file it reads from.
type ReadCloser struct {
	f *os.File
	Reader
}

// Open opens the named archive and parses its table of contents.
func Open(name string) (*ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	r := &ReadCloser{f: f}
	if err := r.init(f); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the archive file.
func (rc *ReadCloser) Close() error { return rc.f.Close() }

// NewReader parses the archive read from r. No Reader is returned unless the
// whole table of contents was read successfully.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	z := new(Reader)
	if err := z.init(r); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Reader) init(r io.ReadSeeker) error {
	c, err := newCursor(r)
	if err != nil {
		return err
	}
	hdr, err := readHeader(c)
	if err != nil {
		return err
	}
	if err := c.seek(int64(hdr.TOCAddress)); err != nil {
		return err
	}

	dirs := make([]Directory, 0, hdr.DirCount)
	for i := 0; i < int(hdr.DirCount); i++ {
		d, err := readDirectory(c)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"name": d.Name, "files": d.FileCount}).Debug("isv3: directory")
		dirs = append(dirs, d)
	}

	files := make([]*File, 0, hdr.FileCount)
	index := make(map[string]int, hdr.FileCount)
	var offset uint32
	for _, d := range dirs {
		var entries []*File
		entries, offset, err = readDirectoryFiles(c, d, offset)
		if err != nil {
			return err
		}
		for _, f := range entries {
			// A later record with the same path replaces the earlier one.
			if i, ok := index[f.FullPath]; ok {
				files[i] = f
				continue
			}
			index[f.FullPath] = len(files)
			files = append(files, f)
		}
	}
	log.WithFields(log.Fields{
		"directories": len(dirs),
		"files":       len(files),
		"dataSize":    offset,
	}).Debug("isv3: parsed table of contents")

	z.c = c
	z.header = hdr
	z.dirs = dirs
	z.files = files
	z.index = index
	return nil
}

// readHeader decodes the fixed header field by field and validates the
// signature before anything else is read.
func readHeader(c *cursor) (Header, error) {
	var h Header
	var err error
	if h.Signature, err = c.uint32(); err != nil {
		return h, err
	}
	if h.Signature != Signature {
		return h, c.fail("read header", 0, fmt.Errorf("%w: %#08x", ErrSignature, h.Signature))
	}
	if err = c.skip(8); err != nil {
		return h, err
	}
	if h.FileCount, err = c.uint16(); err != nil {
		return h, err
	}
	if err = c.skip(4); err != nil {
		return h, err
	}
	if h.ArchiveSize, err = c.uint32(); err != nil {
		return h, err
	}
	if err = c.skip(19); err != nil {
		return h, err
	}
	tocAt := c.offset()
	if h.TOCAddress, err = c.uint32(); err != nil {
		return h, err
	}
	if int64(h.TOCAddress) >= c.size {
		return h, c.fail("read header", tocAt, fmt.Errorf("%w: %d, stream size %d", ErrTOCAddress, h.TOCAddress, c.size))
	}
	if err = c.skip(4); err != nil {
		return h, err
	}
	if h.DirCount, err = c.uint16(); err != nil {
		return h, err
	}
	return h, nil
}

func readDirectory(c *cursor) (Directory, error) {
	fileCount, err := c.uint16()
	if err != nil {
		return Directory{}, err
	}
	chunkSize, err := c.uint16()
	if err != nil {
		return Directory{}, err
	}
	name, err := c.string16()
	if err != nil {
		return Directory{}, err
	}
	if err := c.skipChunk(chunkSize, dirRecordFixedLen+len(name)); err != nil {
		return Directory{}, err
	}
	return Directory{Name: name, FileCount: fileCount}, nil
}

// readDirectoryFiles reads the file records of d. offset is the data offset
// of the first record; the offset following the last record is returned.
func readDirectoryFiles(c *cursor, d Directory, offset uint32) ([]*File, uint32, error) {
	files := make([]*File, 0, d.FileCount)
	for i := 0; i < int(d.FileCount); i++ {
		at := c.offset()
		f, err := readFileRecord(c)
		if err != nil {
			return nil, offset, err
		}
		if offset+f.CompressedSize < offset {
			return nil, offset, c.fail("read file record", at, fmt.Errorf("%w: data offset overflow", ErrFormat))
		}
		f.FullPath = joinPath(d.Name, f.Name)
		f.DataOffset = offset
		offset += f.CompressedSize
		files = append(files, f)
	}
	return files, offset, nil
}

func readFileRecord(c *cursor) (*File, error) {
	if err := c.skip(7); err != nil {
		return nil, err
	}
	compressedSize, err := c.uint32()
	if err != nil {
		return nil, err
	}
	if err := c.skip(12); err != nil {
		return nil, err
	}
	chunkSize, err := c.uint16()
	if err != nil {
		return nil, err
	}
	if err := c.skip(4); err != nil {
		return nil, err
	}
	name, err := c.string8()
	if err != nil {
		return nil, err
	}
	if err := c.skipChunk(chunkSize, fileRecordFixedLen+len(name)); err != nil {
		return nil, err
	}
	return &File{Name: name, CompressedSize: compressedSize}, nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + PathSeparator + name
}

// Header returns the decoded archive header.
func (z *Reader) Header() Header { return z.header }

// Directories returns the directories in table of contents order.
func (z *Reader) Directories() []Directory {
	return append([]Directory(nil), z.dirs...)
}

// Files returns the entries in table of contents order. A path recorded
// more than once appears at its first position with its last record.
func (z *Reader) Files() []*File {
	files := make([]*File, len(z.files))
	for i, f := range z.files {
		cp := *f
		files[i] = &cp
	}
	return files
}

// Lookup returns the entry stored under fullPath.
func (z *Reader) Lookup(fullPath string) (*File, bool) {
	i, ok := z.index[fullPath]
	if !ok {
		return nil, false
	}
	f := *z.files[i]
	return &f, true
}

// Exists reports whether the archive has an entry under fullPath.
func (z *Reader) Exists(fullPath string) bool {
	_, ok := z.index[fullPath]
	return ok
}

// Extract reads and decompresses the entry stored under fullPath. Each call
// re-reads the payload; nothing is cached. A failed call leaves the Reader
// usable.
func (z *Reader) Extract(fullPath string) ([]byte, error) {
	i, ok := z.index[fullPath]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, fullPath)
	}
	f := z.files[i]
	if err := z.c.seek(dataStart + int64(f.DataOffset)); err != nil {
		return nil, err
	}
	buf, err := z.c.bytes(int64(f.CompressedSize))
	if err != nil {
		return nil, err
	}
	out, err := explode.Decompress(buf)
	if err != nil {
		derr := &DecompressError{Path: fullPath, Err: err}
		var e *explode.Error
		if errors.As(err, &e) {
			derr.Code = e.Code
		}
		return nil, derr
	}
	return out, nil
}
