package library

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnrichJoinsAndKeepsOrder(t *testing.T) {
	api := new(mockAPI)
	api.On("GetMember", mock.Anything, int64(10)).Return(&Member{ID: 10, Name: "Ann", Email: "ann@x.io"}, nil).Once()
	api.On("GetMember", mock.Anything, int64(11)).Return(&Member{ID: 11, Name: "Bob"}, nil).Once()
	api.On("GetBook", mock.Anything, int64(1)).Return(&Book{ID: 1, Title: "Dune", Author: "Herbert", ImageURL: "http://img/1"}, nil).Once()
	api.On("GetBook", mock.Anything, int64(2)).Return(&Book{ID: 2, Title: "Emma", Author: "Austen"}, nil).Once()

	raw := []Borrowing{
		{ID: 3, MemberID: 11, BookID: 2, ReturnStatus: "Active"},
		{ID: 1, MemberID: 10, BookID: 1, ReturnStatus: "returned"},
		{ID: 2, MemberID: 10, BookID: 2, ReturnStatus: "Overdue"},
	}
	e := NewEnricher(api, LookupPolicy{BatchSize: 2}, nil)
	out := e.Enrich(context.Background(), raw)

	require.Len(t, out, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{out[0].ID, out[1].ID, out[2].ID})

	assert.Equal(t, "Bob", out[0].BorrowerName)
	assert.Equal(t, NotAvailable, out[0].BorrowerEmail, "empty email gets a placeholder")
	assert.Equal(t, "Emma", out[0].BookName)

	assert.Equal(t, "Ann", out[1].BorrowerName)
	assert.Equal(t, "ann@x.io", out[1].BorrowerEmail)
	assert.Equal(t, "Dune", out[1].BookName)
	assert.Equal(t, "Herbert", out[1].Author)
	assert.Equal(t, "http://img/1", out[1].ImageURL)
	assert.Equal(t, ReturnReturned, out[1].Status())
	assert.Equal(t, ReturnOverdue, out[2].Status())

	// Each distinct id was looked up exactly once.
	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "GetMember", 2)
	api.AssertNumberOfCalls(t, "GetBook", 2)
}

func TestEnrichPlaceholders(t *testing.T) {
	api := new(mockAPI)
	api.On("GetMember", mock.Anything, int64(1)).Return(nil, &TransportError{Op: "get member", StatusCode: 404})
	api.On("GetBook", mock.Anything, int64(9)).Return(nil, errors.New("boom"))

	e := NewEnricher(api, LookupPolicy{BatchSize: 5}, nil)
	out := e.Enrich(context.Background(), []Borrowing{{ID: 1, MemberID: 1, BookID: 9}})

	require.Len(t, out, 1)
	assert.Equal(t, UnknownMember, out[0].BorrowerName)
	assert.Equal(t, NotAvailable, out[0].BorrowerEmail)
	assert.Equal(t, UnknownBook, out[0].BookName)
	assert.Equal(t, NotAvailable, out[0].Author)
	assert.Empty(t, out[0].ImageURL)
}

func TestEnrichEmpty(t *testing.T) {
	e := NewEnricher(new(mockAPI), DefaultLookupPolicy(), nil)
	out := e.Enrich(context.Background(), nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

// slowAPI records how many lookups run at once.
type slowAPI struct {
	API
	delay time.Duration

	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
	starts   []time.Time
}

func (s *slowAPI) track() func() {
	n := s.inFlight.Add(1)
	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	s.starts = append(s.starts, time.Now())
	s.mu.Unlock()
	time.Sleep(s.delay)
	return func() { s.inFlight.Add(-1) }
}

func (s *slowAPI) GetMember(_ context.Context, id int64) (*Member, error) {
	defer s.track()()
	return &Member{ID: id, Name: "m"}, nil
}

func (s *slowAPI) GetBook(_ context.Context, id int64) (*Book, error) {
	defer s.track()()
	return &Book{ID: id, Title: "b"}, nil
}

func borrowingsFor(n int) []Borrowing {
	out := make([]Borrowing, n)
	for i := range out {
		out[i] = Borrowing{ID: int64(i), MemberID: int64(i), BookID: int64(100 + i)}
	}
	return out
}

func TestEnrichBoundsConcurrency(t *testing.T) {
	api := &slowAPI{delay: 20 * time.Millisecond}
	e := NewEnricher(api, LookupPolicy{BatchSize: 3}, nil)

	out := e.Enrich(context.Background(), borrowingsFor(10))

	require.Len(t, out, 10)
	for i, it := range out {
		assert.Equal(t, int64(i), it.ID)
		assert.Equal(t, "m", it.BorrowerName)
		assert.Equal(t, "b", it.BookName)
	}
	assert.LessOrEqual(t, api.peak, int32(3))
	assert.Len(t, api.starts, 20)
}

func TestEnrichPausesBetweenBatches(t *testing.T) {
	api := &slowAPI{}
	e := NewEnricher(api, LookupPolicy{BatchSize: 2, BatchPause: 30 * time.Millisecond}, nil)

	start := time.Now()
	e.Enrich(context.Background(), borrowingsFor(4))

	// Members and books each take two batches, so one pause per kind.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.LessOrEqual(t, api.peak, int32(2))
}

func TestEnrichStopsPausingWhenCancelled(t *testing.T) {
	api := &slowAPI{}
	e := NewEnricher(api, LookupPolicy{BatchSize: 1, BatchPause: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan []EnrichedBorrowing)
	go func() { done <- e.Enrich(ctx, borrowingsFor(3)) }()

	select {
	case out := <-done:
		require.Len(t, out, 3)
		assert.Equal(t, "m", out[0].BorrowerName)
		assert.Equal(t, UnknownMember, out[2].BorrowerName)
	case <-time.After(5 * time.Second):
		t.Fatal("enrich kept waiting after cancellation")
	}
}
