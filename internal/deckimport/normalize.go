package deckimport

import "strings"

// normalize folds text for duplicate detection: whitespace runs collapse to
// one space, the ends are trimmed and letters are lowercased.
func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func pairKey(front, back string) string {
	return normalize(front) + "\x00" + normalize(back)
}
