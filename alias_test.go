package quilt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/quilt/pkg/sqldsl"
)

func TestNextAlias(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a", "b"},
		{"y", "z"},
		{"z", "aa"},
		{"aa", "ab"},
		{"az", "ba"},
		{"zz", "aaa"},
		{"azz", "baa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextAlias(tt.in), "nextAlias(%q)", tt.in)
	}
}

func TestAllocateAliases_Short(t *testing.T) {
	aliases := AllocateAliases([]string{"people", "companies", "joined"}, true)

	assert.Equal(t, AliasMap{"people": "a", "companies": "b", "joined": "c"}, aliases)
}

func TestAllocateAliases_SkipsReservedWords(t *testing.T) {
	order := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		order = append(order, string(rune('A'+i%26))+string(rune('0'+i/26)))
	}

	aliases := AllocateAliases(order, true)

	seen := make(map[string]bool)
	for _, name := range order {
		alias := aliases[name]
		assert.False(t, reservedAlias(alias), "alias %q is reserved", alias)
		assert.False(t, seen[alias], "alias %q allocated twice", alias)
		seen[alias] = true
	}
	// z is the 26th token; "aa" follows, then "ab" ... with "as", "by", "do" skipped.
	assert.Equal(t, "z", aliases[order[25]])
	assert.Equal(t, "aa", aliases[order[26]])
	assert.Equal(t, "ar", aliases[order[43]])
	assert.Equal(t, "at", aliases[order[44]])
}

func TestAllocateAliases_FullNames(t *testing.T) {
	aliases := AllocateAliases([]string{"people", "Companies", "order", "active_users"}, false)

	assert.Equal(t, AliasMap{
		"people":       "people",
		"Companies":    `"Companies"`,
		"order":        `"order"`,
		"active_users": "active_users",
	}, aliases)
}

func TestAllocateAliases_Empty(t *testing.T) {
	assert.Empty(t, AllocateAliases(nil, true))
	assert.Empty(t, AllocateAliases(nil, false))
}

func reservedAlias(s string) bool {
	switch s {
	case "as", "by", "do", "if", "in", "is", "of", "on", "or", "to":
		return true
	}
	return false
}

func TestIdentKey(t *testing.T) {
	assert.Equal(t, "people", identKey("people"))
	assert.Equal(t, "people", identKey("People"))
	assert.Equal(t, "People", identKey(`"People"`))
	assert.Equal(t, `say "hi"`, identKey(`"say ""hi"""`))
}

func TestCanMerge(t *testing.T) {
	bindings := []sqldsl.CTEDef{{Name: "a"}, {Name: `"My People"`}}

	assert.True(t, canMerge(bindings, sqldsl.WithCTE{CTEs: []sqldsl.CTEDef{{Name: "named_people"}}}))
	assert.False(t, canMerge(bindings, sqldsl.WithCTE{CTEs: []sqldsl.CTEDef{{Name: "A"}}}))
	assert.False(t, canMerge(bindings, sqldsl.WithCTE{CTEs: []sqldsl.CTEDef{{Name: `"My People"`}}}))
	assert.False(t, canMerge(bindings, sqldsl.WithCTE{Recursive: true}))
}
