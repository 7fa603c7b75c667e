package library

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer serves router under /api/v1 and returns a client for it.
func fakeServer(t *testing.T, router *mux.Router, opts ...ClientOption) *Client {
	t.Helper()
	root := mux.NewRouter()
	root.PathPrefix("/api/v1").Handler(http.StripPrefix("/api/v1", router))
	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", opts...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestClientListBooksGenreQuery(t *testing.T) {
	r := mux.NewRouter()
	var gotGenre string
	var hadGenre bool
	r.HandleFunc("/books", func(w http.ResponseWriter, req *http.Request) {
		gotGenre = req.URL.Query().Get("genre")
		_, hadGenre = req.URL.Query()["genre"]
		assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `[{"bookId":1,"bookName":"Dune","author":"Herbert","genre":"Sci-Fi","availabilityStatus":"Available","imageUrl":"http://img/1"}]`)
	}).Methods(http.MethodGet)
	c := fakeServer(t, r)

	books, err := c.ListBooks(context.Background(), "Sci-Fi")
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", gotGenre)
	require.Len(t, books, 1)
	assert.Equal(t, Book{ID: 1, Title: "Dune", Author: "Herbert", Genre: "Sci-Fi", AvailabilityStatus: StatusAvailable, ImageURL: "http://img/1"}, books[0])

	_, err = c.ListBooks(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hadGenre, "unfiltered listing must not send a genre")
}

func TestClientErrorMapping(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/members", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	})
	r.HandleFunc("/librarians", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"message":"db down"}`)
	})
	r.HandleFunc("/borrowings", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, `nope`)
	})
	c := fakeServer(t, r)
	ctx := context.Background()

	_, err := c.ListMembers(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, "token expired", te.Message)

	_, err = c.ListLibrarians(ctx)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "db down", te.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "db down")

	_, err = c.ListBorrowings(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorAs(t, err, &te)
	assert.Empty(t, te.Message)
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).PopularBooks(context.Background())
	assert.True(t, IsTransportError(err))
}

func TestClientLookupsByID(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/books/{id}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "7" {
			writeJSON(w, http.StatusNotFound, `{"message":"no such book"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"bookId":7,"bookName":"Emma","author":"Austen","genre":"Classic","availabilityStatus":"Borrowed"}`)
	}).Methods(http.MethodGet)
	r.HandleFunc("/members/{id}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "3" {
			writeJSON(w, http.StatusNotFound, `{"message":"no such member"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"memberId":3,"name":"Ann","email":"ann@x.io","phoneNumber":"0711"}`)
	}).Methods(http.MethodGet)
	c := fakeServer(t, r)
	ctx := context.Background()

	book, err := c.GetBook(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, &Book{ID: 7, Title: "Emma", Author: "Austen", Genre: "Classic", AvailabilityStatus: StatusBorrowed}, book)

	member, err := c.GetMember(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, &Member{ID: 3, Name: "Ann", Email: "ann@x.io", PhoneNumber: "0711"}, member)

	_, err = c.GetBook(ctx, 8)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, "no such book", te.Message)

	_, err = c.GetMember(ctx, 4)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
}

func TestClientDeleteBodies(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/books/{id}", func(w http.ResponseWriter, req *http.Request) {
		switch mux.Vars(req)["id"] {
		case "1":
			w.WriteHeader(http.StatusNoContent)
		case "2":
			writeJSON(w, http.StatusOK, "true")
		case "3":
			writeJSON(w, http.StatusOK, "false")
		}
	}).Methods(http.MethodDelete)
	c := fakeServer(t, r)
	ctx := context.Background()

	assert.NoError(t, c.DeleteBook(ctx, 1), "empty body is success")
	assert.NoError(t, c.DeleteBook(ctx, 2))
	assert.ErrorIs(t, c.DeleteBook(ctx, 3), ErrRejected)
}

func TestClientWritesEchoEntity(t *testing.T) {
	r := mux.NewRouter()
	var body []byte
	r.HandleFunc("/books/add", func(w http.ResponseWriter, req *http.Request) {
		body, _ = io.ReadAll(req.Body)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, `{"bookId":42,"bookName":"Emma","author":"Austen","genre":"Classic","availabilityStatus":"Available"}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/members/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPut)
	c := fakeServer(t, r)
	ctx := context.Background()

	created, err := c.AddBook(ctx, Book{Title: "Emma", Author: "Austen", Genre: "Classic", AvailabilityStatus: StatusAvailable})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(42), created.ID)
	assert.JSONEq(t, `{"bookId":0,"bookName":"Emma","author":"Austen","genre":"Classic","availabilityStatus":"Available"}`, string(body))

	updated, err := c.UpdateMember(ctx, 7, Member{Name: "Ann"})
	require.NoError(t, err)
	assert.Nil(t, updated, "no body means no echoed entity")
}

func TestClientLogin(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/admins/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var in struct{ Email, Password string }
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		switch in.Password {
		case "right":
			writeJSON(w, http.StatusOK, "true")
		case "record":
			writeJSON(w, http.StatusOK, `{"email":"admin@library.test"}`)
		case "wrong":
			writeJSON(w, http.StatusOK, "false")
		default:
			// The password names the body to answer with.
			writeJSON(w, http.StatusOK, in.Password)
		}
	}).Methods(http.MethodPost)
	c := fakeServer(t, r)
	ctx := context.Background()

	ok, err := c.Login(ctx, "admin@library.test", "right")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Login(ctx, "admin@library.test", "record")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Login(ctx, "admin@library.test", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, body := range []string{"null", "0", "1", `"false"`, `"true"`, "{}", `{"email":""}`, "[]", "{broken"} {
		ok, err = c.Login(ctx, "admin@library.test", body)
		require.NoError(t, err, body)
		assert.False(t, ok, "body %s must be a rejection", body)
	}
}

func TestClientTimeout(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/books/popular", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-req.Context().Done():
		}
		writeJSON(w, http.StatusOK, "[]")
	})
	shared := &http.Client{}
	c := fakeServer(t, r, WithHTTPClient(shared), WithTimeout(50*time.Millisecond))

	_, err := c.PopularBooks(context.Background())
	assert.True(t, IsTransportError(err))
	assert.Zero(t, shared.Timeout, "the caller's http.Client must not be modified")
}
