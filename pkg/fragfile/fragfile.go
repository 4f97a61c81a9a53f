// Package fragfile loads fragment definitions from YAML or TOML files.
//
// A fragment file maps fragment names to a list of dependencies and a SQL
// body. Bodies are text/template templates with two functions:
//
//	table "name"  the dependency as a table expression (derived table or CTE name)
//	ref "name"    the alias the dependency is referred to by
//
// Example:
//
//	fragments:
//	  companies:
//	    sql: SELECT * FROM companies
//	  people:
//	    sql: SELECT * FROM people
//	  joined:
//	    depends: [people, companies]
//	    sql: |
//	      SELECT {{ref "people"}}.first_name, {{ref "companies"}}.name
//	      FROM {{table "people"}}
//	      INNER JOIN {{table "companies"}} ON {{ref "people"}}.company_id = {{ref "companies"}}.id
//	alias:
//	  staff: people
package fragfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"sigs.k8s.io/yaml"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/sqldsl"
)

// ErrUndeclaredDependency is returned when a fragment body refers to a
// fragment it does not list in depends.
var ErrUndeclaredDependency = errors.New("fragfile: undeclared dependency")

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("fragfile: unsupported format")

// Format is a fragment file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// File is a decoded fragment file.
type File struct {
	Fragments map[string]Definition `json:"fragments" toml:"fragments"`
	Aliases   map[string]string     `json:"alias,omitempty" toml:"alias,omitempty"`

	templates map[string]*template.Template
}

// Definition is a single fragment in a file.
type Definition struct {
	Depends []string `json:"depends,omitempty" toml:"depends,omitempty"`
	SQL     string   `json:"sql" toml:"sql"`
}

// Load reads and parses the fragment file at path.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fragment file: %w", err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a fragment file and parses every template body.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, &f); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := f.compile(); err != nil {
		return nil, err
	}
	return &f, nil
}

// placeholderFuncs lets templates parse before a build supplies sources.
var placeholderFuncs = template.FuncMap{
	"table": func(string) (string, error) { return "", nil },
	"ref":   func(string) (string, error) { return "", nil },
}

func (f *File) compile() error {
	f.templates = make(map[string]*template.Template, len(f.Fragments))
	for _, name := range f.Names() {
		def := f.Fragments[name]
		if strings.TrimSpace(def.SQL) == "" {
			return fmt.Errorf("fragment %q: %w: empty sql", name, quilt.ErrInvalidFragment)
		}
		for _, dep := range def.Depends {
			if dep == "" {
				return fmt.Errorf("fragment %q: %w: empty dependency name", name, quilt.ErrInvalidFragment)
			}
		}
		tmpl, err := template.New(name).Funcs(placeholderFuncs).Parse(def.SQL)
		if err != nil {
			return fmt.Errorf("fragment %q: %w", name, err)
		}
		f.templates[name] = tmpl
	}
	return nil
}

// Names returns the fragment names defined in the file, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Fragments))
	for name := range f.Fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds every fragment and alias in the file to reg.
// Aliases may refer to fragments, to other aliases or to fragments already
// in reg.
func (f *File) Register(reg *quilt.Registry) error {
	for _, name := range f.Names() {
		def := f.Fragments[name]
		if err := reg.Use(name, f.buildFunc(name, def.Depends), def.Depends...); err != nil {
			return err
		}
	}
	return f.registerAliases(reg)
}

func (f *File) registerAliases(reg *quilt.Registry) error {
	pending := make([]string, 0, len(f.Aliases))
	for name := range f.Aliases {
		pending = append(pending, name)
	}
	sort.Strings(pending)

	for len(pending) > 0 {
		var next []string
		for _, name := range pending {
			if !reg.Has(f.Aliases[name]) {
				next = append(next, name)
				continue
			}
			if err := reg.Alias(name, f.Aliases[name]); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			name := next[0]
			return fmt.Errorf("alias %q: %w", name, &quilt.UnknownFragmentError{Name: f.Aliases[name]})
		}
		pending = next
	}
	return nil
}

// Registry loads the file at path into a new registry.
func Registry(path string) (*quilt.Registry, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	reg := quilt.NewRegistry()
	if err := f.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// buildFunc renders the fragment's template against the sources of its
// dependencies.
func (f *File) buildFunc(name string, depends []string) quilt.BuildFunc {
	tmpl := f.templates[name]
	return func(deps ...quilt.Source) any {
		sources := make(map[string]quilt.Source, len(depends))
		for i, dep := range depends {
			sources[dep] = deps[i]
		}
		lookup := func(dep string) (quilt.Source, error) {
			src, ok := sources[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %q uses %q", ErrUndeclaredDependency, name, dep)
			}
			return src, nil
		}

		t, err := tmpl.Clone()
		if err != nil {
			return err
		}
		t.Funcs(template.FuncMap{
			"table": func(dep string) (string, error) {
				src, err := lookup(dep)
				if err != nil {
					return "", err
				}
				return src.TableSQL(), nil
			},
			"ref": func(dep string) (string, error) {
				src, err := lookup(dep)
				if err != nil {
					return "", err
				}
				return src.TableAlias(), nil
			},
		})

		var buf bytes.Buffer
		if err := t.Execute(&buf, nil); err != nil {
			return err
		}
		return sqldsl.Raw(strings.TrimSpace(buf.String()))
	}
}

// Encode writes the file's fragments and aliases to w in the given format.
func (f *File) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(f)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(f); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
