package core

import (
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/moby/sys/sequential"
	"github.com/pkg/errors"
)

// Target applies the filesystem side of an extraction. Names are the
// slash-separated paths recorded in the archive.
type Target interface {
	// CreateDir creates a directory and its parents. An existing directory
	// is not an error.
	CreateDir(name string) error
	CreateEmptyFile(name string) error
	OpenFile(name string) (Sink, error)
}

// DirTarget extracts below a root directory on the local filesystem.
type DirTarget struct {
	root       string
	queueDepth int
	chunkSize  int
}

// NewDirTarget returns a target rooted at root. Entries can never resolve to
// a location outside root, whatever ".." elements or symlinks they traverse.
func NewDirTarget(root string, opts *Options) *DirTarget {
	o := opts.withDefaults()
	return &DirTarget{
		root:       root,
		queueDepth: o.QueueDepth,
		chunkSize:  o.ChunkSize,
	}
}

func (d *DirTarget) resolve(name string) (string, error) {
	p, err := securejoin.SecureJoin(d.root, filepath.FromSlash(name))
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", name)
	}
	return p, nil
}

func (d *DirTarget) CreateDir(name string) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return errors.Wrapf(err, "create dir %s", name)
	}
	return nil
}

func (d *DirTarget) CreateEmptyFile(name string) error {
	f, err := d.create(name)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return withSentinel(ErrWrite, err, "close "+name)
	}
	return nil
}

func (d *DirTarget) OpenFile(name string) (Sink, error) {
	f, err := d.create(name)
	if err != nil {
		return nil, err
	}
	return NewWriterSink(f, d.queueDepth, d.chunkSize), nil
}

func (d *DirTarget) create(name string) (*os.File, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, withSentinel(ErrOpenSink, err, "create "+name)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, withSentinel(ErrOpenSink, err, "create parent dir for "+name)
	}
	f, err := sequential.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, withSentinel(ErrOpenSink, err, "create "+name)
	}
	return f, nil
}
