package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/ntnmrndn/tarte/internal/tartest"
	"github.com/ntnmrndn/tarte/lib"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

func defaultOptions(t *testing.T, args ...string) extractOptions {
	var opts extractOptions
	flags := &pflag.FlagSet{}
	installExtractFlags(flags, &opts)
	assert.NilError(t, flags.Parse(args))
	return opts
}

func TestCoreOptionsDefaults(t *testing.T) {
	opts := defaultOptions(t)
	assert.Check(t, is.Equal(opts.bufferSize, "4KiB"))
	assert.Check(t, is.Equal(opts.logLevel, "info"))
	assert.Check(t, opts.progress)

	o, err := opts.coreOptions(100)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(o.BufferSize, lib.DefaultBufferSize))
	assert.Check(t, o.Progress != nil)
}

func TestCoreOptionsBufferSize(t *testing.T) {
	o, err := defaultOptions(t, "--buffer-size", "64k", "--progress=false").coreOptions(0)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(o.BufferSize, 64*1024))
	assert.Check(t, o.Progress == nil)

	_, err = defaultOptions(t, "--buffer-size", "100").coreOptions(0)
	assert.Check(t, is.ErrorContains(err, "at least 512 bytes"))

	_, err = defaultOptions(t, "--buffer-size", "lots").coreOptions(0)
	assert.Check(t, is.ErrorContains(err, "invalid --buffer-size"))
}

func TestRunExtractFile(t *testing.T) {
	data := tartest.Archive(t,
		tartest.Entry{Name: "toto/"},
		tartest.Entry{Name: "toto/tata", Body: []byte("hi\n")},
	)
	archive := fs.NewFile(t, "archive.tar", fs.WithBytes(data))
	dest := fs.NewDir(t, "dest")

	err := runExtract(context.Background(), nil, archive.Path(), dest.Path(), defaultOptions(t, "--progress=false"))
	assert.NilError(t, err)
	content, err := os.ReadFile(dest.Join("toto", "tata"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(string(content), "hi\n"))
}

func TestRunExtractStdin(t *testing.T) {
	data := tartest.Archive(t, tartest.Entry{Name: "toto", Body: []byte("hi\n")})
	dest := fs.NewDir(t, "dest")

	err := runExtract(context.Background(), bytes.NewReader(data), "-", dest.Path(), defaultOptions(t))
	assert.NilError(t, err)
	content, err := os.ReadFile(dest.Join("toto"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(string(content), "hi\n"))
}

func TestRunExtractGarbage(t *testing.T) {
	archive := fs.NewFile(t, "garbage.tar", fs.WithBytes(bytes.Repeat([]byte("garbage!"), 128)))
	dest := fs.NewDir(t, "dest")

	err := runExtract(context.Background(), nil, archive.Path(), dest.Path(), defaultOptions(t, "--progress=false"))
	assert.Check(t, errors.Is(err, lib.ErrBadMagic), "%v", err)
	assert.Check(t, is.ErrorContains(err, "is not a valid tar archive"))
}

func TestExtractCommandArgs(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"extract"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Check(t, is.ErrorContains(cmd.Execute(), "accepts between 1 and 2 arg(s)"))
}
