// Package slug normalizes branch names into valid Kubernetes label values.
//
// Branch names come from git, where almost any byte sequence is legal;
// label values must match [a-z0-9]([-a-z0-9]*[a-z0-9])? with at most 63
// characters. The same normalization must be applied at deploy time and at
// cleanup time, otherwise the deletion selector never matches anything.
package slug

import "strings"

// MaxLabelValueLength is the maximum length of a Kubernetes label value.
const MaxLabelValueLength = 63

// Make normalizes a branch name into a Kubernetes label value of at most
// MaxLabelValueLength characters. It is deterministic and idempotent:
// Make(Make(x)) == Make(x) for every input.
func Make(name string) string {
	return MakeMax(name, MaxLabelValueLength)
}

// MakeMax is Make with a caller-chosen maximum length.
//
// The pipeline: lowercase, replace every character outside [a-z0-9] with
// a hyphen, strip leading hyphens, prepend "v" when the first character is
// a digit, truncate the transformed string to maxLen, strip trailing
// hyphens. Truncation measures the transformed string, so the digit prefix
// is never pushed past the limit. The result is either empty (the input
// contained no usable characters) or a valid label value.
func MakeMax(name string, maxLen int) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(name))

	// A leading hyphen is not a legal label value start; leading
	// separators carry no branch identity, so they are dropped rather
	// than prefixed.
	s = strings.TrimLeft(s, "-")
	if s == "" {
		return ""
	}

	if s[0] >= '0' && s[0] <= '9' {
		s = "v" + s
	}

	if maxLen >= 0 && len(s) > maxLen {
		s = s[:maxLen]
	}

	return strings.TrimRight(s, "-")
}
