package shieldfile

import (
	"context"
	_ "crypto/sha256" // digest.FromBytes
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alec-rabold/shieldspy/pkg/aws"
	"github.com/alec-rabold/shieldspy/pkg/reader"
	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDestination indicates a destination that is missing or not a directory
	ErrDestination = errors.New("shieldfile: destination directory not found")
	// ErrUnsafePath indicates an entry whose path would be written outside the destination
	ErrUnsafePath = errors.New("shieldfile: entry path escapes destination")
)

// FileExtractor lists and extracts the entries of an InstallShield v3 archive.
type FileExtractor struct {
	src    Source
	client *aws.Client
	region string
	jobs   int
	digest bool
}

// Option configures a FileExtractor.
type Option func(*FileExtractor)

// WithJobs sets the number of concurrent extraction workers. Each worker
// opens its own handle on the archive. Values < 1 mean 1.
func WithJobs(n int) Option {
	return func(x *FileExtractor) {
		if n < 1 {
			n = 1
		}
		x.jobs = n
	}
}

// WithDigest enables computing a SHA-256 digest of every extracted entry.
func WithDigest(enabled bool) Option {
	return func(x *FileExtractor) { x.digest = enabled }
}

// WithClient sets the AWS client used for S3 sources.
func WithClient(c *aws.Client) Option {
	return func(x *FileExtractor) { x.client = c }
}

// WithRegion sets the region of the AWS client created for S3 sources
// when no client was given.
func WithRegion(region string) Option {
	return func(x *FileExtractor) { x.region = region }
}

// File represents a decompressed, extracted entry
type File struct {
	reader.File

	// Contents holds the decompressed bytes. ExtractTo leaves it nil once
	// the entry is written to disk.
	Contents []byte
	// Size is the decompressed size.
	Size int
	// Digest is set when digests are enabled.
	Digest digest.Digest
	// Dest is the path written by ExtractTo.
	Dest string
}

// Listing describes one entry of an archive.
type Listing struct {
	FullPath       string
	CompressedSize uint32
	DataOffset     uint32
}

// NewFileExtractor creates a new instance of FileExtractor
func NewFileExtractor(src Source, opts ...Option) *FileExtractor {
	x := &FileExtractor{src: src, jobs: 1}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *FileExtractor) open(ctx context.Context) (*reader.Reader, io.Closer, error) {
	if x.src.IsS3() && x.client == nil {
		c, err := aws.NewClient(x.region)
		if err != nil {
			return nil, nil, err
		}
		x.client = c
	}
	return x.src.open(ctx, x.client)
}

// List returns every entry of the archive in table of contents order.
func (x *FileExtractor) List(ctx context.Context) ([]Listing, error) {
	z, closer, err := x.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	files := z.Files()
	out := make([]Listing, 0, len(files))
	for _, f := range files {
		out = append(out, Listing{FullPath: f.FullPath, CompressedSize: f.CompressedSize, DataOffset: f.DataOffset})
	}
	return out, nil
}

// ExtractFiles decompresses every entry whose full path contains one of the
// patterns, or every entry when no pattern is given. Results are in table of
// contents order.
func (x *FileExtractor) ExtractFiles(ctx context.Context, patterns []string) ([]*File, error) {
	return x.extract(ctx, patterns, nil)
}

// ExtractTo writes the selected entries below dest, which must be an existing
// directory. Backslashes in entry paths become host path separators.
func (x *FileExtractor) ExtractTo(ctx context.Context, dest string, patterns []string) ([]*File, error) {
	info, err := os.Stat(dest)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDestination, dest)
	}
	return x.extract(ctx, patterns, func(f *File) error {
		path, err := LocalPath(dest, f.FullPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			log.Debugf("error creating directory (name: %s), err: %v", filepath.Dir(path), err)
			return err
		}
		if err := os.WriteFile(path, f.Contents, 0644); err != nil {
			log.Debugf("error writing to file (name: %s), err: %v", path, err)
			return err
		}
		f.Dest = path
		f.Contents = nil
		return nil
	})
}

// LocalPath translates the backslash-separated entry path into a path below dest.
func LocalPath(dest, fullPath string) (string, error) {
	rel := filepath.Clean(strings.ReplaceAll(fullPath, reader.PathSeparator, string(filepath.Separator)))
	if fullPath == "" || rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, fullPath)
	}
	return filepath.Join(dest, rel), nil
}

func (x *FileExtractor) extract(ctx context.Context, patterns []string, sink func(*File) error) ([]*File, error) {
	z, closer, err := x.open(ctx)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var selected []string
	for _, f := range z.Files() {
		if len(patterns) == 0 || contains(patterns, f.FullPath) {
			selected = append(selected, f.FullPath)
		}
	}
	results := make([]*File, len(selected))

	jobs := x.jobs
	if jobs > len(selected) {
		jobs = len(selected)
	}
	if jobs <= 1 {
		if err := x.extractRange(ctx, z, selected, results, sink); err != nil {
			return nil, err
		}
		return results, nil
	}

	// Each worker takes a contiguous run of entries and its own handle: a
	// Reader must not be shared between goroutines.
	g, gctx := errgroup.WithContext(ctx)
	per := (len(selected) + jobs - 1) / jobs
	for start := 0; start < len(selected); start += per {
		end := start + per
		if end > len(selected) {
			end = len(selected)
		}
		paths, out := selected[start:end], results[start:end]
		g.Go(func() error {
			wz, wcloser, err := x.src.open(gctx, x.client)
			if err != nil {
				return err
			}
			defer wcloser.Close()
			return x.extractRange(gctx, wz, paths, out, sink)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (x *FileExtractor) extractRange(ctx context.Context, z *reader.Reader, paths []string, out []*File, sink func(*File) error) error {
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, _ := z.Lookup(p)
		contents, err := z.Extract(p)
		if err != nil {
			log.Debugf("error extracting file (name: %s), err: %v", p, err)
			return err
		}
		f := &File{File: *entry, Contents: contents, Size: len(contents)}
		if x.digest {
			f.Digest = digest.FromBytes(contents)
		}
		log.WithFields(log.Fields{
			"path":       f.FullPath,
			"compressed": f.CompressedSize,
			"size":       f.Size,
		}).Debug("shieldfile: extracted")
		if sink != nil {
			if err := sink(f); err != nil {
				return err
			}
		}
		out[i] = f
	}
	return nil
}

func contains(s []string, e string) bool {
	for _, a := range s {
		if strings.Contains(e, a) {
			return true
		}
	}
	return false
}
