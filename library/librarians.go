package library

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MinNICLength is the shortest national identity number accepted.
const MinNICLength = 10

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidationError maps form fields to what is wrong with them.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f + ": " + v[f]
	}
	return "invalid librarian: " + strings.Join(msgs, "; ")
}

// ValidateLibrarian checks l the way the librarian forms do. A new
// account additionally needs a NIC and an email no existing librarian
// uses. The returned error, if any, is a ValidationError.
func ValidateLibrarian(l Librarian, existing []Librarian, create bool) error {
	v := ValidationError{}
	required := func(field, value, label string) {
		if strings.TrimSpace(value) == "" {
			v[field] = label + " is required"
		}
	}
	required("name", l.Name, "Name")
	required("email", l.Email, "Email")
	required("phone", l.PhoneNumber, "Phone")
	if create {
		required("nic", l.NIC, "NIC")
	}
	required("address", l.Address, "Address")

	if l.Email != "" && !emailPattern.MatchString(l.Email) {
		v["email"] = "Please enter a valid email"
	}
	if create && l.Email != "" {
		for _, e := range existing {
			if e.Email == l.Email {
				v["email"] = "Email already exists"
				break
			}
		}
	}
	if create && l.NIC != "" && len(l.NIC) < MinNICLength {
		v["nic"] = "NIC must be at least " + strconv.Itoa(MinNICLength) + " characters"
	}

	if len(v) == 0 {
		return nil
	}
	return v
}

// WithLibrarianDefaults fills the shift and status of a new account.
func WithLibrarianDefaults(l Librarian) Librarian {
	if l.Shift == "" {
		l.Shift = ShiftMorning
	}
	if l.Status == "" {
		l.Status = LibrarianActive
	}
	return l
}

// FilterLibrarians keeps the librarians whose name, email or id contains
// query, ignoring case. An empty query keeps everyone.
func FilterLibrarians(librarians []Librarian, query string) []Librarian {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return librarians
	}
	out := make([]Librarian, 0, len(librarians))
	for _, l := range librarians {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.Email), q) ||
			strings.Contains(strconv.FormatInt(l.ID, 10), q) {
			out = append(out, l)
		}
	}
	return out
}

const (
	passwordChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#$%"
	passwordLength = 8
)

// GeneratePassword returns a random initial password for a new librarian.
func GeneratePassword() (string, error) {
	limit := big.NewInt(int64(len(passwordChars)))
	b := make([]byte, passwordLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", errors.Wrap(err, "generate password")
		}
		b[i] = passwordChars[n.Int64()]
	}
	return string(b), nil
}
