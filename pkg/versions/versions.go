// Package versions compares package versions using the Debian policy
// ordering: optional "epoch:" prefix, upstream part, optional revision
// after the last dash. Digit runs compare numerically, "~" sorts before
// everything including the empty string, letters sort before other
// characters. This matches dpkg --compare-versions, which the platform
// uses everywhere a version decision is made.
package versions

import (
	"strconv"
	"strings"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
)

// Operators accepted by Satisfies
const (
	OpLT = "lt"
	OpLE = "le"
	OpEQ = "eq"
	OpNE = "ne"
	OpGE = "ge"
	OpGT = "gt"
)

// Compare returns -1, 0 or 1 when a sorts before, equal to, or after b
func Compare(a, b string) int {
	aEpoch, aUpstream, aRevision := split(a)
	bEpoch, bUpstream, bRevision := split(b)

	if aEpoch != bEpoch {
		if aEpoch < bEpoch {
			return -1
		}
		return 1
	}
	if res := verrevcmp(aUpstream, bUpstream); res != 0 {
		return res
	}
	return verrevcmp(aRevision, bRevision)
}

// Validate reports whether v is a well-formed version string
func Validate(v string) error {
	if v == "" {
		return apperrors.New(apperrors.ErrVersionInvalid, "empty version")
	}
	if strings.ContainsAny(v, " \t\n") {
		return apperrors.Newf(apperrors.ErrVersionInvalid, "version %q contains whitespace", v)
	}
	_, upstream, _ := splitRaw(v)
	if upstream == "" {
		return apperrors.Newf(apperrors.ErrVersionInvalid, "version %q has no upstream part", v)
	}
	if upstream[0] < '0' || upstream[0] > '9' {
		return apperrors.Newf(apperrors.ErrVersionInvalid, "version %q must start with a digit", v)
	}
	return nil
}

// Satisfies evaluates "a op b" with the dpkg operator names
func Satisfies(a, op, b string) (bool, error) {
	res := Compare(a, b)
	switch op {
	case OpLT:
		return res < 0, nil
	case OpLE:
		return res <= 0, nil
	case OpEQ:
		return res == 0, nil
	case OpNE:
		return res != 0, nil
	case OpGE:
		return res >= 0, nil
	case OpGT:
		return res > 0, nil
	default:
		return false, apperrors.Newf(apperrors.ErrInvalidInput, "unknown comparison operator %q", op)
	}
}

// split separates epoch, upstream and revision, with the epoch parsed
func split(v string) (int, string, string) {
	epochStr, upstream, revision := splitRaw(v)
	epoch := 0
	if epochStr != "" {
		// Validate rejects non-numeric epochs; Compare treats them as 0
		epoch, _ = strconv.Atoi(epochStr)
	}
	return epoch, upstream, revision
}

func splitRaw(v string) (epoch, upstream, revision string) {
	rest := v
	if idx := strings.Index(rest, ":"); idx >= 0 && isNumeric(rest[:idx]) {
		// Only an all-digit prefix is an epoch; any other colon is an
		// ordinary version character.
		epoch, rest = rest[:idx], rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, "-"); idx >= 0 {
		rest, revision = rest[:idx], rest[idx+1:]
	}
	return epoch, rest, revision
}

// order maps a character to its sort weight: "~" before everything,
// digits neutral, letters before the rest
func order(c byte) int {
	switch {
	case c == '~':
		return -1
	case c >= '0' && c <= '9':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// verrevcmp implements the fragment comparison from Debian policy §5.6.12
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		firstDiff := 0

		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) {
				ac = order(a[i])
			}
			if j < len(b) {
				bc = order(b[j])
			}
			if ac != bc {
				if ac < bc {
					return -1
				}
				return 1
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			if firstDiff < 0 {
				return -1
			}
			return 1
		}
	}
	return 0
}
