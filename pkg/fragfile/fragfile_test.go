package fragfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/fragfile"
)

const joinedDerived = `SELECT a.first_name, b.name
FROM (
    SELECT * FROM people
) AS a
INNER JOIN (
    SELECT * FROM companies
) AS b ON a.company_id = b.id`

const joinedCTE = `WITH a AS (
    SELECT * FROM people
),
b AS (
    SELECT * FROM companies
)
SELECT a.first_name, b.name
FROM a
INNER JOIN b ON a.company_id = b.id`

func TestRegistry_Formats(t *testing.T) {
	for _, path := range []string{"testdata/fragments.yaml", "testdata/fragments.toml"} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			reg, err := fragfile.Registry(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"companies", "crew", "joined", "people", "staff"}, reg.Names())

			c := quilt.New(reg)
			derived, err := c.Build("joined")
			require.NoError(t, err)
			assert.Equal(t, joinedDerived, derived.SQL())

			cte, err := c.Build("joined", quilt.UseCTE(true))
			require.NoError(t, err)
			assert.Equal(t, joinedCTE, cte.SQL())

			crew, err := c.Build("crew")
			require.NoError(t, err)
			assert.Equal(t, "SELECT * FROM people", crew.SQL())
		})
	}
}

func TestLoad(t *testing.T) {
	f, err := fragfile.Load("testdata/fragments.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"companies", "joined", "people"}, f.Names())
	assert.Equal(t, []string{"people", "companies"}, f.Fragments["joined"].Depends)
	assert.Equal(t, map[string]string{"staff": "people", "crew": "staff"}, f.Aliases)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want fragfile.Format
	}{
		{"fragments.yaml", fragfile.FormatYAML},
		{"dir/fragments.YML", fragfile.FormatYAML},
		{"fragments.toml", fragfile.FormatTOML},
	}
	for _, tt := range tests {
		got, err := fragfile.FormatFor(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := fragfile.FormatFor("fragments.json")
	assert.ErrorIs(t, err, fragfile.ErrUnsupportedFormat)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  fragfile.Format
		data    string
		wantErr string
	}{
		{
			name:    "template syntax",
			format:  fragfile.FormatYAML,
			data:    "fragments:\n  broken:\n    sql: SELECT {{ref \"x\"\n",
			wantErr: `fragment "broken"`,
		},
		{
			name:    "empty sql",
			format:  fragfile.FormatYAML,
			data:    "fragments:\n  empty:\n    depends: [x]\n",
			wantErr: "empty sql",
		},
		{
			name:    "unknown yaml key",
			format:  fragfile.FormatYAML,
			data:    "fragments:\n  x:\n    sql: SELECT 1\n    deps: [y]\n",
			wantErr: "parsing yaml",
		},
		{
			name:    "unknown toml key",
			format:  fragfile.FormatTOML,
			data:    "[fragments.x]\nsql = \"SELECT 1\"\ndeps = [\"y\"]\n",
			wantErr: "unknown key",
		},
		{
			name:    "invalid toml",
			format:  fragfile.FormatTOML,
			data:    "[fragments.x\n",
			wantErr: "parsing toml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fragfile.Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_EmptySQLIsInvalidFragment(t *testing.T) {
	_, err := fragfile.Parse([]byte("fragments:\n  empty:\n    sql: \"  \"\n"), fragfile.FormatYAML)
	assert.True(t, quilt.IsInvalidFragmentErr(err))
}

func TestBuild_UndeclaredDependency(t *testing.T) {
	data := `
fragments:
  people:
    sql: SELECT * FROM people
  sneaky:
    depends: [people]
    sql: SELECT * FROM {{table "companies"}}
`
	f, err := fragfile.Parse([]byte(data), fragfile.FormatYAML)
	require.NoError(t, err)
	reg := quilt.NewRegistry()
	require.NoError(t, f.Register(reg))

	for _, useCTE := range []bool{false, true} {
		q, err := quilt.New(reg).Build("sneaky", quilt.UseCTE(useCTE))
		assert.Nil(t, q)
		assert.ErrorIs(t, err, fragfile.ErrUndeclaredDependency)
		assert.Contains(t, err.Error(), `"companies"`)
	}
}

func TestRegister_UnknownAliasTarget(t *testing.T) {
	data := "fragments:\n  people:\n    sql: SELECT * FROM people\nalias:\n  ghost: nobody\n"
	f, err := fragfile.Parse([]byte(data), fragfile.FormatYAML)
	require.NoError(t, err)

	err = f.Register(quilt.NewRegistry())
	assert.True(t, quilt.IsUnknownFragmentErr(err))
	assert.True(t, strings.Contains(err.Error(), `alias "ghost"`))
}

func TestRegister_AliasToExistingFragment(t *testing.T) {
	reg := quilt.NewRegistry()
	reg.MustUse("companies", func(...quilt.Source) any { return quilt.Query(nil) })

	f, err := fragfile.Parse([]byte("fragments: {}\nalias:\n  firms: companies\n"), fragfile.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, f.Register(reg))
	assert.True(t, reg.Has("firms"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := fragfile.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncode_RoundTrip(t *testing.T) {
	orig, err := fragfile.Load("testdata/fragments.yaml")
	require.NoError(t, err)

	for _, format := range []fragfile.Format{fragfile.FormatYAML, fragfile.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf strings.Builder
			require.NoError(t, orig.Encode(&buf, format))

			decoded, err := fragfile.Parse([]byte(buf.String()), format)
			require.NoError(t, err)
			assert.Equal(t, orig.Fragments, decoded.Fragments)
			assert.Equal(t, orig.Aliases, decoded.Aliases)
		})
	}

	var buf strings.Builder
	assert.ErrorIs(t, orig.Encode(&buf, "json"), fragfile.ErrUnsupportedFormat)
}
