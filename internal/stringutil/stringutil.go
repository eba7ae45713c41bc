// Package stringutil provides the small split helper the protocol
// codecs are built on.
package stringutil

import "strings"

// SplitPreserveEmpty splits s on every occurrence of sep, preserving
// empty tokens (leading, trailing, and adjacent-delimiter). It returns
// []string{s} if sep doesn't occur in s, and nil if s is empty.
func SplitPreserveEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(s, sep)
}
