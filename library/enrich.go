package library

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultLookupBatchSize  = 5
	DefaultLookupBatchPause = 100 * time.Millisecond
)

// Placeholders shown when a joined record could not be loaded.
const (
	UnknownMember = "Unknown Member"
	UnknownBook   = "Unknown Book"
	NotAvailable  = "N/A"
)

// LookupPolicy bounds the per-record requests made while enriching
// borrowings. With a positive BatchPause the ids are fetched in batches
// of BatchSize with a pause between batches; with a zero pause up to
// BatchSize requests are kept in flight at any time.
type LookupPolicy struct {
	BatchSize  int
	BatchPause time.Duration
}

// DefaultLookupPolicy returns the policy the dashboard uses by default.
func DefaultLookupPolicy() LookupPolicy {
	return LookupPolicy{BatchSize: DefaultLookupBatchSize, BatchPause: DefaultLookupBatchPause}
}

// Enricher joins raw borrowings with their member and book.
type Enricher struct {
	api    API
	policy LookupPolicy
	logger *slog.Logger
}

// NewEnricher creates an Enricher. A non-positive batch size falls back
// to DefaultLookupBatchSize.
func NewEnricher(api API, policy LookupPolicy, logger *slog.Logger) *Enricher {
	if policy.BatchSize <= 0 {
		policy.BatchSize = DefaultLookupBatchSize
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Enricher{api: api, policy: policy, logger: logger}
}

// Enrich looks up every distinct member and book referenced by
// borrowings once and joins them in. The result has the same length and
// order as borrowings. Failed lookups never fail the join; the affected
// fields get placeholder values.
func (e *Enricher) Enrich(ctx context.Context, borrowings []Borrowing) []EnrichedBorrowing {
	memberIDs := make([]int64, 0, len(borrowings))
	bookIDs := make([]int64, 0, len(borrowings))
	seenMembers := make(map[int64]struct{}, len(borrowings))
	seenBooks := make(map[int64]struct{}, len(borrowings))
	for _, b := range borrowings {
		if _, ok := seenMembers[b.MemberID]; !ok {
			seenMembers[b.MemberID] = struct{}{}
			memberIDs = append(memberIDs, b.MemberID)
		}
		if _, ok := seenBooks[b.BookID]; !ok {
			seenBooks[b.BookID] = struct{}{}
			bookIDs = append(bookIDs, b.BookID)
		}
	}

	members := lookupAll(ctx, e, "member", memberIDs, e.api.GetMember)
	books := lookupAll(ctx, e, "book", bookIDs, e.api.GetBook)

	out := make([]EnrichedBorrowing, len(borrowings))
	for i, b := range borrowings {
		out[i] = join(b, members[b.MemberID], books[b.BookID])
	}
	return out
}

func join(b Borrowing, m *Member, bk *Book) EnrichedBorrowing {
	eb := EnrichedBorrowing{
		Borrowing:     b,
		BorrowerName:  UnknownMember,
		BorrowerEmail: NotAvailable,
		BookName:      UnknownBook,
		Author:        NotAvailable,
	}
	if m != nil {
		eb.BorrowerName = orDefault(m.Name, UnknownMember)
		eb.BorrowerEmail = orDefault(m.Email, NotAvailable)
	}
	if bk != nil {
		eb.BookName = orDefault(bk.Title, UnknownBook)
		eb.Author = orDefault(bk.Author, NotAvailable)
		eb.ImageURL = bk.ImageURL
	}
	return eb
}

// lookupAll fetches ids under the enricher's policy. The returned map
// has an entry for every id; failed lookups map to nil.
func lookupAll[T any](
	ctx context.Context,
	e *Enricher,
	kind string,
	ids []int64,
	fetch func(context.Context, int64) (*T, error),
) map[int64]*T {
	results := make([]*T, len(ids))
	get := func(i int) {
		v, err := fetch(ctx, ids[i])
		if err != nil {
			e.logger.WarnContext(ctx, "lookup failed", "kind", kind, "id", ids[i], "error", err)
			return
		}
		results[i] = v
	}

	if e.policy.BatchPause <= 0 {
		var g errgroup.Group
		g.SetLimit(e.policy.BatchSize)
		for i := range ids {
			g.Go(func() error { get(i); return nil })
		}
		_ = g.Wait()
	} else {
	batches:
		for start := 0; start < len(ids); start += e.policy.BatchSize {
			if start > 0 {
				select {
				case <-time.After(e.policy.BatchPause):
				case <-ctx.Done():
					break batches
				}
			}
			end := min(start+e.policy.BatchSize, len(ids))
			var g errgroup.Group
			for i := start; i < end; i++ {
				g.Go(func() error { get(i); return nil })
			}
			_ = g.Wait()
		}
	}

	byID := make(map[int64]*T, len(ids))
	for i, id := range ids {
		byID[id] = results[i]
	}
	return byID
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
