package quilt

import (
	"github.com/pthm/quilt/pkg/sqldsl"
)

// AliasMap maps fragment names to the SQL alias they are referenced by.
type AliasMap map[string]string

// firstAlias seeds the short alias sequence.
const firstAlias = "a"

// AllocateAliases assigns an alias to every fragment in order.
//
// With short set, fragments get sequential tokens in order: "a", "b", ...
// "z", "aa", "ab", ... Tokens that are SQL reserved words ("as", "by", "do",
// "in", ...) are skipped. Otherwise each fragment is aliased by its own
// name, double-quoted when it is not a plain lower-case identifier.
func AllocateAliases(order []string, short bool) AliasMap {
	aliases := make(AliasMap, len(order))
	token := firstAlias
	for _, name := range order {
		if !short {
			aliases[name] = sqldsl.QuoteIdent(name)
			continue
		}
		for sqldsl.IsReserved(token) {
			token = nextAlias(token)
		}
		aliases[name] = token
		token = nextAlias(token)
	}
	return aliases
}

// nextAlias returns the alphabetic successor of s: the last letter is
// incremented, carrying into the letters before it, and a new leading "a"
// is added once every letter has wrapped.
// Example: "a" -> "b", "z" -> "aa", "az" -> "ba", "zz" -> "aaa"
func nextAlias(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 'z' {
			b[i]++
			return string(b)
		}
		b[i] = 'a'
	}
	return "a" + string(b)
}
