package quilt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/quilt"
)

func TestRegistry_Use(t *testing.T) {
	reg := quilt.NewRegistry()
	require.NoError(t, reg.Use("people", table("people")))
	require.NoError(t, reg.Use("joined", passthrough, "people", "companies"))

	assert.True(t, reg.Has("people"))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"joined", "people"}, reg.Names())

	frag, ok := reg.Lookup("joined")
	require.True(t, ok)
	assert.Equal(t, []string{"people", "companies"}, frag.Deps)
}

func TestRegistry_UseRejectsInvalid(t *testing.T) {
	reg := quilt.NewRegistry()

	err := reg.Use("", table("x"))
	assert.True(t, quilt.IsInvalidFragmentErr(err))

	err = reg.Use("x", nil)
	assert.True(t, quilt.IsInvalidFragmentErr(err))

	assert.Equal(t, 0, reg.Len())
	assert.Panics(t, func() { reg.MustUse("", table("x")) })
}

func TestRegistry_UseCopiesDeps(t *testing.T) {
	reg := quilt.NewRegistry()
	deps := []string{"a", "b"}
	reg.MustUse("x", passthrough, deps...)
	deps[0] = "changed"

	frag, _ := reg.Lookup("x")
	assert.Equal(t, []string{"a", "b"}, frag.Deps)
}

func TestRegistry_UseOverwrites(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("x", table("first"))
	reg.MustUse("x", table("second"), "y")

	frag, _ := reg.Lookup("x")
	assert.Equal(t, []string{"y"}, frag.Deps)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_Alias(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("people", table("people"))
	require.NoError(t, reg.Alias("staff", "people"))

	// Replacing the original leaves the copy untouched.
	reg.MustUse("people", table("users"))

	q, err := quilt.New(reg).Build("staff")
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM people", q.SQL())

	err = reg.Alias("ghost", "missing")
	assert.True(t, quilt.IsUnknownFragmentErr(err))
	assert.False(t, reg.Has("ghost"))
}

func TestRegistry_Delete(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("x", table("x"))
	v := reg.Version()

	reg.Delete("missing")
	assert.Equal(t, v, reg.Version(), "deleting an unknown name is a no-op")

	reg.Delete("x")
	assert.False(t, reg.Has("x"))
	assert.Greater(t, reg.Version(), v)
}

func TestRegistry_VersionBumps(t *testing.T) {
	reg := quilt.NewRegistry()
	assert.Equal(t, uint64(0), reg.Version())

	reg.MustUse("a", table("a"))
	reg.MustUse("b", table("b"))
	require.NoError(t, reg.Alias("c", "a"))

	assert.Equal(t, uint64(3), reg.Version())
}
