package output

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-scrapers/internal/adapter/logging"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/domain/ports"
)

type stubSink struct {
	location string
	err      error
}

func (s stubSink) Save(context.Context, *model.Batch) (string, error) {
	return s.location, s.err
}

type recordingMirror struct {
	locations []string
	err       error
}

func (m *recordingMirror) Mirror(_ context.Context, _ *model.Batch, location string) error {
	m.locations = append(m.locations, location)
	return m.err
}

func TestFanoutMirrorsAfterPrimary(t *testing.T) {
	failing := &recordingMirror{err: errors.New("redis down")}
	ok := &recordingMirror{}
	fanout := NewFanout(logging.New(nil), stubSink{location: "out/a.json"}, failing, nil, ok)

	location, err := fanout.Save(context.Background(), testBatch("a", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "out/a.json", location)
	assert.Equal(t, []string{"out/a.json"}, failing.locations)
	assert.Equal(t, []string{"out/a.json"}, ok.locations)
}

func TestFanoutPrimaryFailureSkipsMirrors(t *testing.T) {
	mirror := &recordingMirror{}
	var mirrors []ports.BatchMirror
	mirrors = append(mirrors, mirror)
	fanout := NewFanout(logging.New(nil), stubSink{err: errors.New("disk full")}, mirrors...)

	_, err := fanout.Save(context.Background(), testBatch("a", time.Now()))
	require.Error(t, err)
	assert.Empty(t, mirror.locations)
}
