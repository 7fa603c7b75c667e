package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"library-dashboard/configs"
	"library-dashboard/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    configs.Config
	logger *slog.Logger
	db     *library.Database
	client *library.Client
}

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	var (
		apiURL     string
		sessionDB  string
		logLevel   string
		timeout    time.Duration
		finePerDay float64
		batchSize  int
		batchPause time.Duration
	)

	root := &cobra.Command{
		Use:           "library-dashboard",
		Short:         "Manage books, members, librarians and borrowings of the library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configs.LoadConfig()
			if err != nil {
				return err
			}

			// Flags win over the environment.
			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if flags.Changed("session-db") {
				cfg.SessionDB = sessionDB
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = timeout
			}
			if flags.Changed("fine-per-day") {
				cfg.FinePerDay = finePerDay
			}
			if flags.Changed("batch-size") {
				if batchSize < 1 {
					return fmt.Errorf("--batch-size must be at least 1")
				}
				cfg.LookupBatchSize = batchSize
			}
			if flags.Changed("batch-pause") {
				cfg.LookupBatchPause = batchPause
			}
			if flags.Changed("log-level") {
				if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
					return fmt.Errorf("invalid --log-level %q", logLevel)
				}
			}
			return a.open(cfg)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", configs.DefaultAPIURL, "base URL of the library API")
	pf.StringVar(&sessionDB, "session-db", configs.DefaultSessionDB, "file keeping the login session")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.DurationVar(&timeout, "timeout", configs.DefaultRequestTimeout, "per-request timeout, 0 for none")
	pf.Float64Var(&finePerDay, "fine-per-day", configs.DefaultFinePerDay, "fine charged per overdue day")
	pf.IntVar(&batchSize, "batch-size", configs.DefaultLookupBatch, "concurrent member/book lookups")
	pf.DurationVar(&batchPause, "batch-pause", configs.DefaultLookupPause, "pause between lookup batches, 0 for a sliding window")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newBooksCmd(a),
		newMembersCmd(a),
		newLibrariansCmd(a),
		newBorrowingsCmd(a),
		newDashboardCmd(a),
		newShellCmd(a),
	)
	return root
}

func (a *app) open(cfg configs.Config) error {
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := library.NewDatabase(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.db = db
	a.client = library.NewClient(cfg.APIURL,
		library.WithTimeout(cfg.RequestTimeout),
		library.WithClientLogger(a.logger),
	)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// manager restores the saved session and builds a manager acting for it.
func (a *app) manager() (*library.LibraryManager, error) {
	session, err := library.RestoreSession(a.db)
	if errors.Is(err, library.ErrNoSession) {
		return nil, fmt.Errorf("not logged in, run 'library-dashboard login' first")
	}
	if err != nil {
		return nil, err
	}
	return a.newManager(session), nil
}

func (a *app) newManager(session *library.Session) *library.LibraryManager {
	return library.NewLibraryManager(a.client, session,
		library.WithLogger(a.logger),
		library.WithFinePerDay(a.cfg.FinePerDay),
		library.WithLookupPolicy(library.LookupPolicy{
			BatchSize:  a.cfg.LookupBatchSize,
			BatchPause: a.cfg.LookupBatchPause,
		}),
	)
}

// listFailed settles a failed read of a list command. A lost session
// ends the command; any other failure leaves the empty list on screen
// with a warning.
func listFailed(cmd *cobra.Command, mgr *library.LibraryManager, err error) error {
	if errors.Is(err, library.ErrNoSession) || errors.Is(err, library.ErrUnauthorized) {
		return sessionEnded(mgr, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	return nil
}

// sessionEnded turns a rejected session into advice for the user.
func sessionEnded(mgr *library.LibraryManager, err error) error {
	if !mgr.Session().Active() {
		return fmt.Errorf("session expired, run 'library-dashboard login' again")
	}
	return err
}
