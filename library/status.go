package library

import "strings"

// ReturnStatus is the normalized state of a borrowing.
type ReturnStatus int

const (
	ReturnUnknown ReturnStatus = iota
	ReturnActive
	ReturnOverdue
	ReturnReturned
	ReturnLost
)

// returnAliases maps every accepted spelling (lower-cased) to its status.
// ParseReturnStatus is the only place that reads raw status strings.
var returnAliases = map[string]ReturnStatus{
	"active":   ReturnActive,
	"overdue":  ReturnOverdue,
	"returned": ReturnReturned,
	"return":   ReturnReturned,
	"lost":     ReturnLost,
}

// ParseReturnStatus normalizes a status string from the API. Matching is
// case-insensitive and ignores surrounding whitespace; unrecognised
// values yield ReturnUnknown.
func ParseReturnStatus(s string) ReturnStatus {
	if st, ok := returnAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st
	}
	return ReturnUnknown
}

// IsReturned reports whether the borrowing is closed.
func (s ReturnStatus) IsReturned() bool { return s == ReturnReturned }

func (s ReturnStatus) String() string {
	switch s {
	case ReturnActive:
		return "Active"
	case ReturnOverdue:
		return "Overdue"
	case ReturnReturned:
		return "Returned"
	case ReturnLost:
		return "Lost"
	default:
		return "Unknown"
	}
}
