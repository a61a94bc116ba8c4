package progress

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestNilTracker(t *testing.T) {
	var tr *Tracker
	tr.Start(context.Background())
	tr.Add(10)
	tr.Stop()
	assert.Check(t, is.Equal(tr.Processed(), uint64(0)))

	n, err := io.Copy(io.Discard, tr.Reader(bytes.NewReader([]byte("abc"))))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, int64(3)))
}

func TestReaderCountsBytes(t *testing.T) {
	tr := New(1024)
	data := bytes.Repeat([]byte("x"), 1000)
	n, err := io.Copy(io.Discard, tr.Reader(bytes.NewReader(data)))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, int64(1000)))
	assert.Check(t, is.Equal(tr.Processed(), uint64(1000)))
}

func TestStartStopLogsSummary(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	ctx := log.WithLogger(context.Background(), logrus.NewEntry(logger))

	tr := New(0)
	tr.interval = time.Hour
	tr.Start(ctx)
	tr.Start(ctx)
	tr.Add(2048)
	tr.Stop()
	tr.Stop()

	entry := hook.LastEntry()
	assert.Assert(t, entry != nil)
	assert.Check(t, is.Equal(entry.Message, "completed"))
	assert.Check(t, is.Equal(entry.Data["processed"], "2.048kB"))
}

func TestFields(t *testing.T) {
	tr := New(1000)
	f := tr.fields(500, 100)
	assert.Check(t, is.Equal(f["percent"], "50.0%"))
	assert.Check(t, is.Equal(f["rate"], "100B/s"))
	assert.Check(t, is.Equal(f["total"], "1kB"))

	f = New(0).fields(500, 100)
	_, ok := f["percent"]
	assert.Check(t, !ok)
}

func TestPercent(t *testing.T) {
	assert.Check(t, is.Equal(percent(0, 0), 0.0))
	assert.Check(t, is.Equal(percent(25, 100), 25.0))
	assert.Check(t, is.Equal(percent(200, 100), 100.0))
}

func TestETA(t *testing.T) {
	assert.Check(t, is.Equal(eta(0, 100, 0), "calculating..."))
	assert.Check(t, is.Equal(eta(100, 100, 10), "0s"))
	assert.Check(t, is.Equal(eta(0, 100, 10), "10 seconds"))
}
