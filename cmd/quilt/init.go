package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/quilt/internal/cli"
	"github.com/pthm/quilt/pkg/fragfile"
)

var (
	initYes    bool
	initForce  bool
	initFormat string
	initCTE    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create quilt.yaml and a starter fragment file",
	Long: `Create quilt.yaml and a starter fragment file in the current directory.

Prompts for the fragment file format and the default assembly strategy
unless --yes is given.`,
	Example: `  # Answer the prompts
  quilt init

  # Accept the defaults
  quilt init --yes

  # Start with TOML fragments and CTE assembly
  quilt init --yes --format toml --cte`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		answers := initAnswers{Format: initFormat, UseCTE: initCTE}
		if !initYes {
			if err := answers.prompt(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return cli.GeneralError("reading answers", err)
			}
		}
		return runInit(".", answers, initForce)
	},
}

func init() {
	f := initCmd.Flags()
	f.BoolVarP(&initYes, "yes", "y", false, "accept defaults without prompting")
	f.BoolVar(&initForce, "force", false, "overwrite existing files")
	f.StringVar(&initFormat, "format", "yaml", "fragment file format (yaml or toml)")
	f.BoolVar(&initCTE, "cte", false, "assemble dependencies as CTEs by default")
}

type initAnswers struct {
	Format string
	UseCTE bool
}

func (a *initAnswers) prompt() error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Fragment file format").
				Options(
					huh.NewOption("YAML", string(fragfile.FormatYAML)),
					huh.NewOption("TOML", string(fragfile.FormatTOML)),
				).
				Value(&a.Format),
			huh.NewConfirm().
				Title("Assemble dependencies as CTEs by default?").
				Description("Derived tables are used otherwise.").
				Value(&a.UseCTE),
		),
	).Run()
}

// starterFragments is the example written by init.
func starterFragments() *fragfile.File {
	return &fragfile.File{
		Fragments: map[string]fragfile.Definition{
			"companies": {SQL: "SELECT * FROM companies"},
			"people":    {SQL: "SELECT * FROM people"},
			"joined": {
				Depends: []string{"people", "companies"},
				SQL: strings.Join([]string{
					`SELECT {{ref "people"}}.first_name, {{ref "companies"}}.name`,
					`FROM {{table "people"}}`,
					`INNER JOIN {{table "companies"}} ON {{ref "people"}}.company_id = {{ref "companies"}}.id`,
				}, "\n"),
			},
		},
	}
}

func runInit(dir string, answers initAnswers, force bool) error {
	format := fragfile.Format(strings.ToLower(answers.Format))
	if format != fragfile.FormatYAML && format != fragfile.FormatTOML {
		return cli.ConfigError("initializing", fmt.Errorf("%w: %q", fragfile.ErrUnsupportedFormat, answers.Format))
	}

	fragmentsName := "fragments." + string(format)
	configFile := filepath.Join(dir, "quilt.yaml")
	fragmentsFile := filepath.Join(dir, fragmentsName)

	if !force {
		for _, path := range []string{configFile, fragmentsFile} {
			if _, err := os.Stat(path); err == nil {
				return cli.GeneralError("initializing", fmt.Errorf("%s already exists (use --force to overwrite)", path))
			}
		}
	}

	config, err := yaml.Marshal(map[string]any{
		"fragments": fragmentsName,
		"build": map[string]any{
			"use_cte":     answers.UseCTE,
			"use_aliases": true,
		},
	})
	if err != nil {
		return cli.GeneralError("encoding config", err)
	}
	if err := os.WriteFile(configFile, config, 0o644); err != nil {
		return cli.GeneralError("writing config", err)
	}

	out, err := os.Create(fragmentsFile)
	if err != nil {
		return cli.GeneralError("writing fragments", err)
	}
	defer func() { _ = out.Close() }()
	if err := starterFragments().Encode(out, format); err != nil {
		return cli.GeneralError("writing fragments", err)
	}

	if !quiet {
		fmt.Println(successStyle.Render("Created " + configFile + " and " + fragmentsFile))
		fmt.Println(hintStyle.Render("Try: quilt build joined"))
	}
	return nil
}
