// Package doctor provides health checks for quilt fragment files.
//
// The doctor command validates that a fragment file loads, that every
// fragment resolves and renders under both assembly strategies, and, when a
// database is available, that both renderings return the same rows.
//
// Example usage:
//
//	d := doctor.New("fragments.yaml", doctor.WithDB(db))
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/pkg/fragfile"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Fragment File", "Rendering").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer, grouped by category in the
// order categories were first reported.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Querier is the subset of *sql.DB the database checks need.
type Querier interface {
	PingContext(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DefaultSampleLimit bounds how many rows are compared row by row.
const DefaultSampleLimit = 1000

// Doctor performs health checks on a fragment file.
type Doctor struct {
	fragmentsPath string
	db            Querier
	roots         []string
	sampleLimit   int
	composerOpts  []quilt.Option
	log           zerolog.Logger

	// Populated during Run
	reg        *quilt.Registry
	resolved   []string
	renderable []string
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithDB enables the database equivalence checks.
func WithDB(db Querier) Option {
	return func(d *Doctor) {
		d.db = db
	}
}

// WithRoots limits the database checks to the given fragments.
// By default every fragment that renders is checked.
func WithRoots(roots ...string) Option {
	return func(d *Doctor) {
		d.roots = roots
	}
}

// WithSampleLimit sets the largest result compared row by row. Larger
// results are compared by row count only.
func WithSampleLimit(n int) Option {
	return func(d *Doctor) {
		d.sampleLimit = n
	}
}

// WithComposerOptions sets the options of the composer fragments are
// rendered with.
func WithComposerOptions(opts ...quilt.Option) Option {
	return func(d *Doctor) {
		d.composerOpts = opts
	}
}

// WithLogger sets the logger checks are traced to.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Doctor) {
		d.log = l
	}
}

// New creates a new Doctor for the fragment file at fragmentsPath.
func New(fragmentsPath string, opts ...Option) *Doctor {
	d := &Doctor{
		fragmentsPath: fragmentsPath,
		sampleLimit:   DefaultSampleLimit,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes all health checks and returns a report.
// An error is returned only when a check could not be carried out.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	d.reg, d.resolved, d.renderable = nil, nil, nil

	if !d.checkFragmentFile(report) {
		return report, nil
	}
	d.checkDependencies(report)
	d.checkRendering(report)
	if err := d.checkDatabase(ctx, report); err != nil {
		return nil, fmt.Errorf("checking database: %w", err)
	}

	return report, nil
}

// checkFragmentFile validates the fragment file exists and loads.
func (d *Doctor) checkFragmentFile(report *Report) bool {
	if _, err := os.Stat(d.fragmentsPath); err != nil {
		report.AddCheck(CheckResult{
			Category: "Fragment File",
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Fragment file not found at %s", d.fragmentsPath),
			FixHint:  "Create fragments.yaml or set 'fragments' in quilt.yaml",
		})
		return false
	}

	report.AddCheck(CheckResult{
		Category: "Fragment File",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Fragment file exists at %s", d.fragmentsPath),
	})

	f, err := fragfile.Load(d.fragmentsPath)
	if err == nil {
		d.reg = quilt.NewRegistry()
		err = f.Register(d.reg)
	}
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Fragment File",
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Fragment file is invalid",
			Details:  err.Error(),
			FixHint:  "Check the file's syntax, template bodies and alias targets",
		})
		return false
	}

	report.AddCheck(CheckResult{
		Category: "Fragment File",
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Fragment file is valid (%d fragments, %d aliases)", len(f.Fragments), len(f.Aliases)),
	})
	return true
}

// checkDependencies resolves every fragment and reports missing and
// circular dependencies.
func (d *Doctor) checkDependencies(report *Report) {
	var unknown, cycles []string
	for _, name := range d.reg.Names() {
		_, err := quilt.Resolve(d.reg, name)
		switch {
		case err == nil:
			d.resolved = append(d.resolved, name)
		case quilt.IsCircularDependencyErr(err):
			cycles = append(cycles, err.Error())
		default:
			unknown = append(unknown, err.Error())
		}
	}

	if len(unknown) > 0 {
		report.AddCheck(CheckResult{
			Category: "Dependencies",
			Name:     "unknown",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d fragments depend on unknown fragments", len(unknown)),
			Details:  strings.Join(unknown, "\n"),
			FixHint:  "Define the missing fragments or fix the names in 'depends'",
		})
	}
	if len(cycles) > 0 {
		report.AddCheck(CheckResult{
			Category: "Dependencies",
			Name:     "cycles",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d fragments are part of a dependency cycle", len(cycles)),
			Details:  strings.Join(cycles, "\n"),
			FixHint:  "Break the cycle by extracting the shared part into its own fragment",
		})
	}
	if len(unknown) == 0 && len(cycles) == 0 {
		report.AddCheck(CheckResult{
			Category: "Dependencies",
			Name:     "resolve",
			Status:   StatusPass,
			Message:  fmt.Sprintf("All %d fragments resolve", len(d.resolved)),
		})
	}
}

// checkRendering builds every resolvable fragment with both strategies.
func (d *Doctor) checkRendering(report *Report) {
	c := quilt.New(d.reg, d.composerOpts...)

	var failures []string
	for _, name := range d.resolved {
		ok := true
		for _, useCTE := range []bool{false, true} {
			if _, err := c.Build(name, quilt.UseCTE(useCTE)); err != nil {
				failures = append(failures, fmt.Sprintf("%s (%s): %v", name, strategyName(useCTE), err))
				ok = false
				break
			}
		}
		if ok {
			d.renderable = append(d.renderable, name)
		}
	}

	if len(failures) > 0 {
		report.AddCheck(CheckResult{
			Category: "Rendering",
			Name:     "build",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d fragments fail to render", len(failures)),
			Details:  strings.Join(failures, "\n"),
			FixHint:  "Only reference fragments listed in 'depends' from table and ref",
		})
		return
	}
	if len(d.resolved) == 0 {
		return
	}
	report.AddCheck(CheckResult{
		Category: "Rendering",
		Name:     "build",
		Status:   StatusPass,
		Message:  fmt.Sprintf("All %d fragments render as derived tables and CTEs", len(d.renderable)),
	})
}

// checkDatabase runs both renderings of each root and compares the results.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) error {
	if d.db == nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "configured",
			Status:   StatusWarn,
			Message:  "No database configured, result equivalence not checked",
			FixHint:  "Set database.url in quilt.yaml or QUILT_DATABASE_URL",
		})
		return nil
	}

	if err := d.db.PingContext(ctx); err != nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "connect",
			Status:   StatusFail,
			Message:  "Cannot connect to database",
			Details:  err.Error(),
			FixHint:  "Check the database settings in quilt.yaml",
		})
		return nil
	}

	roots, missing := d.selectRoots()
	if len(missing) > 0 {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "roots",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d configured roots cannot be checked", len(missing)),
			Details:  strings.Join(missing, ", "),
			FixHint:  "Remove them from doctor.roots or fix the fragments",
		})
	}

	c := quilt.New(d.reg, d.composerOpts...)
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.log.Debug().Str("root", root).Msg("comparing strategies")
		d.compareStrategies(ctx, c, root, report)
	}
	return nil
}

// selectRoots returns the roots to compare: the configured ones that render,
// or every fragment that renders.
func (d *Doctor) selectRoots() (roots, missing []string) {
	if len(d.roots) == 0 {
		return d.renderable, nil
	}
	ok := make(map[string]bool, len(d.renderable))
	for _, name := range d.renderable {
		ok[name] = true
	}
	for _, root := range d.roots {
		if ok[root] {
			roots = append(roots, root)
		} else {
			missing = append(missing, root)
		}
	}
	return roots, missing
}

func (d *Doctor) compareStrategies(ctx context.Context, c *quilt.Composer, root string, report *Report) {
	derived := c.MustBuild(root, quilt.UseCTE(false))
	cte := c.MustBuild(root, quilt.UseCTE(true))

	fail := func(msg string, err error) {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     root,
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s: %s", root, msg),
			Details:  err.Error(),
			FixHint:  "Run 'quilt build " + root + "' and execute the SQL to investigate",
		})
	}

	derivedCount, err := countRows(ctx, d.db, derived)
	if err != nil {
		fail("derived-table query failed", err)
		return
	}
	cteCount, err := countRows(ctx, d.db, cte)
	if err != nil {
		fail("CTE query failed", err)
		return
	}
	if derivedCount != cteCount {
		fail("strategies return different row counts",
			fmt.Errorf("derived tables: %d rows, CTEs: %d rows", derivedCount, cteCount))
		return
	}

	if derivedCount > int64(d.sampleLimit) {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     root,
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%s: row counts match (%d rows), too many rows to compare", root, derivedCount),
			FixHint:  "Raise doctor.sample_limit to compare every row",
		})
		return
	}

	derivedRows, err := fetchRows(ctx, d.db, derived)
	if err != nil {
		fail("derived-table query failed", err)
		return
	}
	cteRows, err := fetchRows(ctx, d.db, cte)
	if err != nil {
		fail("CTE query failed", err)
		return
	}
	if diff := diffRows(derivedRows, cteRows); diff != "" {
		fail("strategies return different rows", errors.New(diff))
		return
	}

	report.AddCheck(CheckResult{
		Category: "Database",
		Name:     root,
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s: derived tables and CTEs return the same %d rows", root, derivedCount),
	})
}

func strategyName(useCTE bool) string {
	if useCTE {
		return quilt.StrategyCTE.String()
	}
	return quilt.StrategyDerived.String()
}
