package archiver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	blobmemory "abcretail/internal/platform/blob/memory"
	audit "abcretail/pkg/platform/audit"
	"abcretail/pkg/platform/audit/archive"
	"abcretail/pkg/platform/audit/archiver/mocks"
	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/queue/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type ArchiverSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *clock
	channel *memory.Channel
	queue   *queue.Typed[audit.Event]
	files   *archive.FileStore
	encoder archive.Encoder
	logger  *slog.Logger
}

func TestArchiverSuite(t *testing.T) {
	suite.Run(t, new(ArchiverSuite))
}

func (s *ArchiverSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &clock{now: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
	s.channel = memory.New(queue.AuditQueue, memory.WithClock(s.clock.Now))
	s.queue = audit.NewQueue(s.channel)
	s.files = archive.NewFileStore(blobmemory.New())
	enc, err := archive.NewEncoder(archive.FormatCSV, time.UTC)
	s.Require().NoError(err)
	s.encoder = enc
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ArchiverSuite) emit(n int) {
	for i := 0; i < n; i++ {
		_, err := s.queue.Append(s.ctx, audit.Event{
			Action:    audit.ActionUpdate,
			Entity:    audit.EntityProduct,
			ID:        "p-1",
			Name:      "Desk Lamp",
			Timestamp: s.clock.Now(),
		})
		s.Require().NoError(err)
	}
}

func (s *ArchiverSuite) newArchiver(files Files, opts ...Option) *Archiver {
	opts = append([]Option{WithLogger(s.logger), WithClock(s.clock.Now)}, opts...)
	return New(s.queue, files, s.encoder, opts...)
}

func (s *ArchiverSuite) TestEmptyRunWritesNoFile() {
	ctrl := gomock.NewController(s.T())
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().ObserveArchiveRun(ResultEmpty, 0, gomock.Any())

	res, err := s.newArchiver(s.files, WithMetrics(m)).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(Result{}, res)

	listed, err := s.files.ListFiles(s.ctx)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *ArchiverSuite) TestArchivesBatchAndDrainsQueue() {
	s.emit(3)
	_, err := s.channel.Append(s.ctx, "garbage")
	s.Require().NoError(err)

	ctrl := gomock.NewController(s.T())
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().ObserveArchiveRun(ResultArchived, 4, gomock.Any())

	res, err := s.newArchiver(s.files, WithMetrics(m)).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, res.Records)
	s.Equal(4, res.Deleted)
	s.Equal("audit-log-20250301-093000.csv", res.File)
	s.Zero(s.channel.Len())

	_, rc, err := s.files.ReadFile(s.ctx, res.File)
	s.Require().NoError(err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	s.Require().NoError(err)
	s.Contains(string(body), "update,Product,Desk Lamp,p-1")
	s.Contains(string(body), "unparsed,,garbage,")
}

func (s *ArchiverSuite) TestBatchIsBoundedByMaxBatch() {
	s.emit(queue.MaxBatch + 4)

	res, err := s.newArchiver(s.files).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(queue.MaxBatch, res.Records)
	s.Equal(4, s.channel.Len())
}

func (s *ArchiverSuite) TestPersistFirstKeepsBatchOnWriteFailure() {
	s.emit(2)
	ctrl := gomock.NewController(s.T())
	files := mocks.NewMockFiles(ctrl)
	files.EXPECT().Save(gomock.Any(), s.encoder, gomock.Len(2), s.clock.Now()).
		Return(archive.File{}, errors.New("share unavailable"))

	res, err := s.newArchiver(files).RunOnce(s.ctx)
	s.ErrorIs(err, ErrPersist)
	s.Equal(2, res.Records)
	s.Zero(res.Deleted)

	s.clock.Advance(queue.DefaultLease + time.Second)
	again, err := s.newArchiver(s.files).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, again.Records, "batch is redelivered and archived on the next run")
	s.Zero(s.channel.Len())
}

func (s *ArchiverSuite) TestDeleteFirstLosesBatchOnWriteFailure() {
	s.emit(2)
	ctrl := gomock.NewController(s.T())
	files := mocks.NewMockFiles(ctrl)
	files.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(archive.File{}, errors.New("share unavailable"))

	res, err := s.newArchiver(files, WithStrategy(DeleteFirst)).RunOnce(s.ctx)
	s.ErrorIs(err, ErrPersist)
	s.Equal(2, res.Deleted)

	s.clock.Advance(queue.DefaultLease + time.Second)
	s.Zero(s.channel.Len())
}

func (s *ArchiverSuite) TestSinkReceivesArchivedRecords() {
	s.emit(2)
	ctrl := gomock.NewController(s.T())
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Publish(gomock.Any(), gomock.Len(2)).Return(errors.New("broker down"))

	res, err := s.newArchiver(s.files, WithSink(sink)).RunOnce(s.ctx)
	s.Require().NoError(err, "sink failures never fail a run")
	s.NotEmpty(res.File)
	s.Zero(s.channel.Len())
}

func (s *ArchiverSuite) TestRunStopsOnCancel() {
	s.emit(1)
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.newArchiver(s.files, WithInterval(10*time.Millisecond)).Run(ctx)
	}()

	s.Eventually(func() bool { return s.channel.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("archiver did not stop")
	}
}

func (s *ArchiverSuite) TestParseStrategy() {
	got, err := ParseStrategy("")
	s.Require().NoError(err)
	s.Equal(PersistFirst, got)

	got, err = ParseStrategy("delete-first")
	s.Require().NoError(err)
	s.Equal(DeleteFirst, got)

	_, err = ParseStrategy("yolo")
	s.Error(err)
}
