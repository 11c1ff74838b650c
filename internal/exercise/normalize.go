package exercise

import (
	"sort"
	"strings"
)

// NormKey is the canonical, order- and punctuation-insensitive form of an
// exercise name. Two names with equal keys denote the same exercise.
type NormKey string

// Normalize canonicalizes a free-text exercise name. Parenthetical
// qualifiers contribute their tokens instead of being discarded, so
// "Bench Press (Barbell)" and "Barbell Bench Press" normalize equal.
// Tokens are lowercased, deduplicated and sorted, which makes word order
// and repeated qualifiers irrelevant to equality. Export tools place
// equipment qualifiers inconsistently (prefix, suffix, parenthetical),
// hence the token-set semantics.
func Normalize(name string) NormKey {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			// Parentheses, punctuation and any other separator become
			// token boundaries, which is what "expand parenthetical
			// content into the token stream" amounts to.
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return ""
	}

	sort.Strings(tokens)
	out := tokens[:1]
	for _, tok := range tokens[1:] {
		if tok != out[len(out)-1] {
			out = append(out, tok)
		}
	}
	return NormKey(strings.Join(out, " "))
}
