package library

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Uncategorized is the genre reported for books without one.
const Uncategorized = "Uncategorized"

// Count is one labelled bar or slice of a dashboard chart.
type Count struct {
	Label string
	Count int
}

// Dashboard is everything the landing page shows.
type Dashboard struct {
	Books   []Book
	Members []Member
	Views   Views
}

// Stats are the headline numbers of the landing page.
type Stats struct {
	TotalBooks int
	Borrowed   int
	Overdue    int
	Members    int
}

func (d Dashboard) Stats() Stats {
	return Stats{
		TotalBooks: len(d.Books),
		Borrowed:   len(d.Views.CurrentlyBorrowed),
		Overdue:    len(d.Views.Overdue),
		Members:    len(d.Members),
	}
}

// Overview is the data of the library overview chart.
func (s Stats) Overview() []Count {
	return []Count{
		{"Total Books", s.TotalBooks},
		{"Active Members", s.Members},
		{"Books Issued", s.Borrowed},
		{"Overdue Books", s.Overdue},
	}
}

// GenreCounts counts books per genre in order of first appearance.
func GenreCounts(books []Book) []Count {
	index := map[string]int{}
	var out []Count
	for _, b := range books {
		g := b.Genre
		if g == "" {
			g = Uncategorized
		}
		i, ok := index[g]
		if !ok {
			i = len(out)
			index[g] = i
			out = append(out, Count{Label: g})
		}
		out[i].Count++
	}
	return out
}

// Dashboard loads the landing page data. The three reads run
// concurrently and, like every read, degrade to empty collections.
func (lm *LibraryManager) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := lm.authorized(); err != nil {
		return Dashboard{}, err
	}
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Books, _ = lm.FetchAllBooksRaw(gctx)
		return nil
	})
	g.Go(func() error {
		d.Members, _ = lm.FetchMembers(gctx)
		return nil
	})
	g.Go(func() error {
		d.Views, _ = lm.Views(gctx)
		return nil
	})
	_ = g.Wait()

	// A rejected session during any of the reads ends the whole page.
	if err := lm.authorized(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
