// Package queuetest holds the behaviour suite every queue.Channel backend runs.
package queuetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/sentinel"
)

// ChannelSuite checks visibility, lease and acknowledgement semantics.
// NewChannel must return an empty channel whose lease is Lease; Advance must
// move the channel's notion of time forward by at least d.
type ChannelSuite struct {
	suite.Suite
	Lease      time.Duration
	NewChannel func() queue.Channel
	Advance    func(d time.Duration)

	ch  queue.Channel
	ctx context.Context
}

func (s *ChannelSuite) SetupTest() {
	s.ctx = context.Background()
	s.ch = s.NewChannel()
}

func (s *ChannelSuite) appendN(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.ch.Append(s.ctx, fmt.Sprintf("body-%02d", i))
		s.Require().NoError(err)
		ids = append(ids, id)
	}
	return ids
}

func (s *ChannelSuite) TestPeekReturnsHeadInOrderAndIsRepeatable() {
	ids := s.appendN(3)

	first, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)
	s.Require().Len(first, 3)
	for i, m := range first {
		s.Equal(ids[i], m.ID)
		s.Equal(fmt.Sprintf("body-%02d", i), m.Body)
		s.Zero(m.DequeueCount)
		s.Empty(m.LeaseToken)
		s.False(m.InsertedAt.IsZero())
	}

	second, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)
	s.Equal(first, second, "peek never changes what is visible")
}

func (s *ChannelSuite) TestPeekDoesNotInterfereWithReceive() {
	s.appendN(2)
	_, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)

	got, err := s.ch.Receive(s.ctx, 32)
	s.Require().NoError(err)
	s.Len(got, 2)
	for _, m := range got {
		s.Equal(1, m.DequeueCount)
		s.NotEmpty(m.LeaseToken)
	}
}

func (s *ChannelSuite) TestReceiveHidesUntilLeaseExpiry() {
	ids := s.appendN(2)

	leased, err := s.ch.Receive(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(leased, 1)
	s.Equal(ids[0], leased[0].ID)

	visible, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)
	s.Require().Len(visible, 1)
	s.Equal(ids[1], visible[0].ID)

	s.Advance(s.Lease + 100*time.Millisecond)

	again, err := s.ch.Receive(s.ctx, 32)
	s.Require().NoError(err)
	var redelivered *queue.Message
	for i := range again {
		if again[i].ID == ids[0] {
			redelivered = &again[i]
		}
	}
	s.Require().NotNil(redelivered, "unacknowledged message is redelivered")
	s.Equal(2, redelivered.DequeueCount)
	s.NotEqual(leased[0].LeaseToken, redelivered.LeaseToken)

	err = s.ch.Delete(s.ctx, leased[0].ID, leased[0].LeaseToken)
	s.ErrorIs(err, sentinel.ErrExpired, "the first lease token is stale")

	s.Require().NoError(s.ch.Delete(s.ctx, redelivered.ID, redelivered.LeaseToken))
}

func (s *ChannelSuite) TestDeleteWithinLease() {
	s.appendN(1)
	got, err := s.ch.Receive(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)

	s.Require().NoError(s.ch.Delete(s.ctx, got[0].ID, got[0].LeaseToken))
	s.ErrorIs(s.ch.Delete(s.ctx, got[0].ID, got[0].LeaseToken), sentinel.ErrNotFound)

	s.Advance(s.Lease + 100*time.Millisecond)
	left, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)
	s.Empty(left)
}

func (s *ChannelSuite) TestDeleteAfterLeaseElapsed() {
	s.appendN(1)
	got, err := s.ch.Receive(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)

	s.Advance(s.Lease + 100*time.Millisecond)
	s.ErrorIs(s.ch.Delete(s.ctx, got[0].ID, got[0].LeaseToken), sentinel.ErrExpired)

	visible, err := s.ch.Peek(s.ctx, 32)
	s.Require().NoError(err)
	s.Len(visible, 1, "message survives a late acknowledgement")
}

func (s *ChannelSuite) TestBatchIsClamped() {
	s.appendN(queue.MaxBatch + 5)

	got, err := s.ch.Peek(s.ctx, 1000)
	s.Require().NoError(err)
	s.Len(got, queue.MaxBatch)

	got, err = s.ch.Peek(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *ChannelSuite) TestConcurrentReceivesNeverOverlap() {
	const total = 50
	s.appendN(total)

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msgs, err := s.ch.Receive(s.ctx, 8)
			if err != nil {
				return
			}
			mu.Lock()
			for _, m := range msgs {
				seen[m.ID]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.Len(seen, total)
	for id, n := range seen {
		s.Equal(1, n, "message %s leased more than once", id)
	}
}
