package quilt

// color represents the state of a fragment during the resolution DFS.
type color int

const (
	white color = iota // unvisited
	gray               // on the current ancestor chain (cycle if revisited)
	black              // fully resolved
)

// Resolve returns the build order for root: every transitive dependency of
// root exactly once, each before every fragment that depends on it. Root
// itself is not included.
//
// Dependencies are visited depth-first in declaration order. A fragment
// reached through several paths (a diamond) keeps the position of its first
// resolution.
//
// Resolve fails with an *UnknownFragmentError if root or any dependency is
// not registered, and with a *CircularDependencyError if a dependency chain
// revisits one of its ancestors, including a fragment depending on itself.
func Resolve(reg *Registry, root string) ([]string, error) {
	if !reg.Has(root) {
		return nil, &UnknownFragmentError{Name: root}
	}

	r := resolver{
		reg:    reg,
		colors: make(map[string]color),
	}
	if err := r.visit(root); err != nil {
		return nil, err
	}

	// The root is always resolved last.
	return r.order[:len(r.order)-1], nil
}

type resolver struct {
	reg    *Registry
	colors map[string]color
	chain  []string // ancestors of the fragment being visited, root first
	order  []string
}

func (r *resolver) visit(name string) error {
	r.colors[name] = gray
	r.chain = append(r.chain, name)

	frag, _ := r.reg.Lookup(name)
	for _, dep := range frag.Deps {
		if !r.reg.Has(dep) {
			return &UnknownFragmentError{Name: dep, Referrer: name}
		}
		switch r.colors[dep] {
		case gray:
			return &CircularDependencyError{Fragment: name, Cycle: r.cycleTo(dep)}
		case white:
			if err := r.visit(dep); err != nil {
				return err
			}
		}
		// black: already in the order at its first position
	}

	r.chain = r.chain[:len(r.chain)-1]
	r.colors[name] = black
	r.order = append(r.order, name)
	return nil
}

// cycleTo builds the cycle path from the ancestor dep down the current
// chain and back to dep.
// Example: chain [root a b], dep a -> [a b a]
func (r *resolver) cycleTo(dep string) []string {
	start := 0
	for i, n := range r.chain {
		if n == dep {
			start = i
			break
		}
	}
	cycle := append([]string(nil), r.chain[start:]...)
	return append(cycle, dep)
}
