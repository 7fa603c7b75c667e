package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"library-dashboard/library"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedInDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := library.NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveSession(library.Admin{Email: "admin@library.test"}))
	require.NoError(t, db.Close())
	return path
}

func apiServer(t *testing.T) string {
	t.Helper()
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	reply := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			io.WriteString(w, body)
		}
	}
	api.HandleFunc("/books", reply(http.StatusInternalServerError, `{"message":"db down"}`))
	api.HandleFunc("/librarians", reply(http.StatusServiceUnavailable, `{"message":"maintenance"}`))
	api.HandleFunc("/members", reply(http.StatusUnauthorized, `{"message":"token expired"}`))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api/v1"
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestListCommandsShowEmptyStateOnServerError(t *testing.T) {
	url := apiServer(t)
	dbPath := loggedInDB(t)

	out, errOut, err := runCLI(t, "books", "list", "--api-url", url, "--session-db", dbPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "No books found.")
	assert.Contains(t, errOut, "Warning:")
	assert.Contains(t, errOut, "db down")

	out, errOut, err = runCLI(t, "librarians", "list", "--api-url", url, "--session-db", dbPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "No librarians found.")
	assert.Contains(t, errOut, "maintenance")
}

func TestListCommandFailsWhenSessionRejected(t *testing.T) {
	url := apiServer(t)
	dbPath := loggedInDB(t)

	out, _, err := runCLI(t, "members", "list", "--api-url", url, "--session-db", dbPath, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
	assert.NotContains(t, out, "No members found.")

	db, err := library.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, ok, err := db.LoadSession()
	require.NoError(t, err)
	assert.False(t, ok, "a rejected session is forgotten")
}
