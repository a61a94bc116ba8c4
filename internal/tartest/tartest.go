// Package tartest builds tar archives for tests: raw USTAR and PAX blocks for
// precise layouts, and writer-produced archives for realistic ones.
package tartest

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vbatts/tar-split/archive/tar"
	"golang.org/x/tools/txtar"
	"gotest.tools/v3/assert"
)

const blockSize = 512

// Block describes a hand-built header block.
type Block struct {
	Name     string
	Prefix   string
	Linkname string
	Size     int64
	Typeflag byte
	// Magic replaces the USTAR magic when set.
	Magic string
}

// Bytes renders the header block. Fields are written as-is, so a name of
// exactly 100 bytes has no terminator.
func (b Block) Bytes() []byte {
	blk := make([]byte, blockSize)
	copy(blk[0:100], b.Name)
	copy(blk[100:108], "0000644\x00")
	copy(blk[108:116], "0000000\x00")
	copy(blk[116:124], "0000000\x00")
	copy(blk[124:136], fmt.Sprintf("%011o\x00", b.Size))
	copy(blk[136:148], "00000000000\x00")
	blk[156] = b.Typeflag
	copy(blk[157:257], b.Linkname)
	magic := b.Magic
	if magic == "" {
		magic = "ustar\x00"
	}
	copy(blk[257:263], magic)
	copy(blk[263:265], "00")
	copy(blk[345:500], b.Prefix)

	copy(blk[148:156], "        ")
	var sum int64
	for _, c := range blk {
		sum += int64(c)
	}
	copy(blk[148:156], fmt.Sprintf("%06o\x00 ", sum))
	return blk
}

// File returns a regular file entry: header, content and padding.
func File(name string, content []byte) []byte {
	hdr := Block{Name: name, Size: int64(len(content)), Typeflag: '0'}
	return Concat(hdr.Bytes(), Pad(content))
}

// Dir returns a directory entry.
func Dir(name string) []byte {
	return Block{Name: name, Typeflag: '5'}.Bytes()
}

// Record formats one PAX record, computing its self-inclusive length.
func Record(key, value string) string {
	const padding = 3 // space, '=' and '\n'
	size := len(key) + len(value) + padding
	size += len(strconv.Itoa(size))
	rec := strconv.Itoa(size) + " " + key + "=" + value + "\n"
	if len(rec) != size {
		size = len(rec)
		rec = strconv.Itoa(size) + " " + key + "=" + value + "\n"
	}
	return rec
}

// PAX returns an extended header entry holding records.
func PAX(records ...string) []byte {
	body := []byte(strings.Join(records, ""))
	hdr := Block{Name: "PaxHeaders.0/entry", Size: int64(len(body)), Typeflag: 'x'}
	return Concat(hdr.Bytes(), Pad(body))
}

// Footer is a single end-of-archive block.
func Footer() []byte {
	return make([]byte, blockSize)
}

// Pad extends b with NULs to a whole number of blocks.
func Pad(b []byte) []byte {
	n := (blockSize - len(b)%blockSize) % blockSize
	return append(append([]byte(nil), b...), make([]byte, n)...)
}

// Concat joins archive fragments.
func Concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// Entry is one member of a writer-produced archive. Names ending in "/" are
// directories.
type Entry struct {
	Name string
	Body []byte
}

// Archive writes entries with a tar writer and returns the archive bytes,
// footer included. Names that do not fit USTAR are stored with PAX records.
func Archive(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.Name,
			Mode:     0644,
			Size:     int64(len(e.Body)),
			Typeflag: tar.TypeReg,
			ModTime:  time.Unix(1594944000, 0),
			Format:   tar.FormatUSTAR,
		}
		if strings.HasSuffix(e.Name, "/") {
			hdr.Mode = 0755
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if !fitsUSTAR(e.Name) {
			hdr.Format = tar.FormatPAX
		}
		assert.NilError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write(e.Body)
			assert.NilError(t, err)
		}
	}
	assert.NilError(t, tw.Close())
	return buf.Bytes()
}

func fitsUSTAR(name string) bool {
	for _, c := range name {
		if c >= 0x80 {
			return false
		}
	}
	if len(name) <= 100 {
		return true
	}
	i := strings.LastIndexByte(name[:len(name)-1], '/')
	return i > 0 && i <= 155 && len(name)-i-1 <= 100
}

// LoadTxtar reads a txtar fixture and converts its files to entries.
func LoadTxtar(t testing.TB, path string) []Entry {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	assert.NilError(t, err)
	entries := make([]Entry, 0, len(ar.Files))
	for _, f := range ar.Files {
		entries = append(entries, Entry{Name: f.Name, Body: f.Data})
	}
	return entries
}

// ChunkReader returns data in reads whose sizes cycle through Sizes.
type ChunkReader struct {
	Data  []byte
	Sizes []int
	n     int
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	if len(r.Data) == 0 {
		return 0, io.EOF
	}
	size := len(p)
	if len(r.Sizes) > 0 {
		size = r.Sizes[r.n%len(r.Sizes)]
		r.n++
	}
	if size > len(p) {
		size = len(p)
	}
	if size > len(r.Data) {
		size = len(r.Data)
	}
	n := copy(p, r.Data[:size])
	r.Data = r.Data[n:]
	return n, nil
}
