package main

import (
	"strings"
	"testing"

	"library-dashboard/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBooks(t *testing.T) {
	in := `title,author,genre,imageUrl
1984, George Orwell, Dystopia
"The Art of War",Sun Tzu,Strategy,http://img/art.jpg
`
	books, err := readBooks(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, library.Book{Title: "1984", Author: "George Orwell", Genre: "Dystopia", AvailabilityStatus: library.StatusAvailable}, books[0])
	assert.Equal(t, "http://img/art.jpg", books[1].ImageURL)
}

func TestReadBooksErrors(t *testing.T) {
	_, err := readBooks(strings.NewReader("Dune,Herbert\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = readBooks(strings.NewReader("Dune,Herbert,Sci-Fi\n,Nobody,None\n"))
	assert.ErrorContains(t, err, "line 2: empty title")
}
