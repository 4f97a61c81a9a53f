package quilt

import (
	"github.com/rs/zerolog"
)

// Strategy selects how dependencies are assembled into the root query.
type Strategy int

const (
	// StrategyDerived nests each dependency as a derived table.
	StrategyDerived Strategy = iota
	// StrategyCTE publishes each dependency as a common table expression.
	StrategyCTE
)

func (s Strategy) String() string {
	switch s {
	case StrategyDerived:
		return "derived"
	case StrategyCTE:
		return "cte"
	default:
		return "unknown"
	}
}

// Composer builds queries from the fragments of a Registry.
type Composer struct {
	reg        *Registry
	builder    Builder
	cache      Cache
	log        zerolog.Logger
	useCTE     bool
	useAliases bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithDefaultCTE sets whether builds use CTE assembly when a call does not
// say. The default is derived-table assembly.
func WithDefaultCTE(useCTE bool) Option {
	return func(c *Composer) {
		c.useCTE = useCTE
	}
}

// WithDefaultAliases sets whether builds use short generated aliases when a
// call does not say. The default is true; false aliases dependencies by
// their fragment names.
func WithDefaultAliases(useAliases bool) Option {
	return func(c *Composer) {
		c.useAliases = useAliases
	}
}

// WithBuilder replaces the SQL builder used to nest and chain fragments.
func WithBuilder(b Builder) Option {
	return func(c *Composer) {
		c.builder = b
	}
}

// WithCache enables caching of build results.
// The cache must be dedicated to this composer's registry.
func WithCache(cache Cache) Option {
	return func(c *Composer) {
		c.cache = cache
	}
}

// WithLogger sets the logger resolution and assembly are traced to at debug
// level. Logging is disabled by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Composer) {
		c.log = l
	}
}

// New creates a Composer over reg. The registry is read at every Build, so
// fragments may be added or replaced between builds.
func New(reg *Registry, opts ...Option) *Composer {
	c := &Composer{
		reg:        reg,
		builder:    DSLBuilder{},
		log:        zerolog.Nop(),
		useAliases: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the composer builds from.
func (c *Composer) Registry() *Registry {
	return c.reg
}

// buildConfig holds the per-call choices after defaults are applied.
type buildConfig struct {
	useCTE     *bool
	useAliases *bool
}

// BuildOption overrides a composer default for a single build.
type BuildOption func(*buildConfig)

// UseCTE selects CTE (true) or derived-table (false) assembly for this build.
func UseCTE(v bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.useCTE = &v
	}
}

// UseAliases selects short generated aliases (true) or fragment-name
// aliases (false) for this build.
func UseAliases(v bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.useAliases = &v
	}
}

// Plan describes how a root will be built, without assembling it.
type Plan struct {
	Root     string
	Order    []string
	Aliases  AliasMap
	Strategy Strategy
}

// Plan resolves root and allocates aliases using the effective options.
func (c *Composer) Plan(root string, opts ...BuildOption) (*Plan, error) {
	useCTE, useAliases := c.resolveOptions(opts)

	order, err := Resolve(c.reg, root)
	if err != nil {
		return nil, err
	}

	strategy := StrategyDerived
	if useCTE {
		strategy = StrategyCTE
	}
	return &Plan{
		Root:     root,
		Order:    order,
		Aliases:  AllocateAliases(order, useAliases),
		Strategy: strategy,
	}, nil
}

// Build assembles root and its dependencies into a single query.
//
// Build reads the registry without modifying it. It returns either the fully
// assembled query or an error wrapping ErrUnknownFragment,
// ErrCircularDependency or ErrInvalidFragment.
func (c *Composer) Build(root string, opts ...BuildOption) (Query, error) {
	useCTE, useAliases := c.resolveOptions(opts)

	var key CacheKey
	if c.cache != nil {
		key = CacheKey{Root: root, UseCTE: useCTE, UseAliases: useAliases, Version: c.reg.Version()}
		if q, err, ok := c.cache.Get(key); ok {
			c.log.Debug().Str("root", root).Msg("build cache hit")
			return q, err
		}
	}

	q, err := c.build(root, opts)
	if c.cache != nil {
		c.cache.Set(key, q, err)
	}
	return q, err
}

func (c *Composer) build(root string, opts []BuildOption) (Query, error) {
	plan, err := c.Plan(root, opts...)
	if err != nil {
		c.log.Debug().Err(err).Str("root", root).Msg("resolve failed")
		return nil, err
	}

	c.log.Debug().
		Str("root", root).
		Strs("order", plan.Order).
		Stringer("strategy", plan.Strategy).
		Msg("resolved build order")

	var q Query
	switch plan.Strategy {
	case StrategyCTE:
		q, err = assembleCTE(c.reg, c.builder, root, plan.Order, plan.Aliases)
	default:
		q, err = assembleDerived(c.reg, c.builder, root, plan.Order, plan.Aliases)
	}
	if err != nil {
		c.log.Debug().Err(err).Str("root", root).Msg("assembly failed")
		return nil, err
	}
	return q, nil
}

// MustBuild is like Build but panics on error.
func (c *Composer) MustBuild(root string, opts ...BuildOption) Query {
	q, err := c.Build(root, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

func (c *Composer) resolveOptions(opts []BuildOption) (useCTE, useAliases bool) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	useCTE, useAliases = c.useCTE, c.useAliases
	if cfg.useCTE != nil {
		useCTE = *cfg.useCTE
	}
	if cfg.useAliases != nil {
		useAliases = *cfg.useAliases
	}
	return useCTE, useAliases
}
