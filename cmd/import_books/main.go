package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"library-dashboard/configs"
	"library-dashboard/library"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newImportCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import_books FILE.csv",
		Short: "Add books listed in a CSV file (title,author,genre[,imageUrl])",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.LoadConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			books, err := readBooks(f)
			if err != nil {
				return err
			}
			if dryRun {
				printImported(cmd.OutOrStdout(), books)
				return nil
			}
			return importBooks(cmd.Context(), cfg, books, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file and print the books without adding them")
	return cmd
}

// readBooks parses CSV rows of title, author, genre and an optional cover
// URL. A first row starting with "title" is taken as a header.
func readBooks(r io.Reader) ([]library.Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var books []library.Book
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "title") {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: want title,author,genre[,imageUrl], got %d fields", line, len(rec))
		}
		b := library.Book{
			Title:              strings.TrimSpace(rec[0]),
			Author:             strings.TrimSpace(rec[1]),
			Genre:              strings.TrimSpace(rec[2]),
			AvailabilityStatus: library.StatusAvailable,
		}
		if len(rec) > 3 {
			b.ImageURL = strings.TrimSpace(rec[3])
		}
		if b.Title == "" {
			return nil, fmt.Errorf("line %d: empty title", line)
		}
		books = append(books, b)
	}
	return books, nil
}

func importBooks(ctx context.Context, cfg configs.Config, books []library.Book, w io.Writer) error {
	db, err := library.NewDatabase(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer db.Close()

	session, err := library.RestoreSession(db)
	if err != nil {
		return fmt.Errorf("log in with library-dashboard first: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	client := library.NewClient(cfg.APIURL,
		library.WithTimeout(cfg.RequestTimeout),
		library.WithClientLogger(logger),
	)
	manager := library.NewLibraryManager(client, session, library.WithLogger(logger))

	fmt.Fprintf(w, "Importing %d books into %s...\n", len(books), cfg.APIURL)

	successCount := 0
	errorCount := 0
	for _, b := range books {
		fmt.Fprintf(w, "Importing: %s by %s... ", b.Title, b.Author)
		created, err := manager.AddBook(ctx, b)
		if err != nil {
			fmt.Fprintf(w, "ERROR - %v\n", err)
			errorCount++
			if errors.Is(err, library.ErrUnauthorized) || ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintf(w, "SUCCESS (ID: %d)\n", created.ID)
		successCount++
	}

	fmt.Fprintf(w, "\nImport complete!\n")
	fmt.Fprintf(w, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(w, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(w, "\nImported books:")
		printImported(w, manager.Books())
	}
	if errorCount > 0 {
		return fmt.Errorf("%d of %d books failed", errorCount, len(books))
	}
	return nil
}

func printImported(w io.Writer, books []library.Book) {
	fmt.Fprintf(w, "%-5s %-50s %-30s %-15s\n", "ID", "Title", "Author", "Genre")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, book := range books {
		fmt.Fprintf(w, "%-5d %-50s %-30s %-15s\n", book.ID, library.Truncate(book.Title, 50), library.Truncate(book.Author, 30), book.Genre)
	}
}
