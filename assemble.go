package quilt

// assembleDerived nests every dependency as a derived table. Fragments are
// invoked in build order; each sees its dependencies as fully assembled
// subqueries under their aliases. The root is invoked last and is never
// wrapped itself.
func assembleDerived(reg *Registry, b Builder, root string, order []string, aliases AliasMap) (Query, error) {
	sources := make(map[string]Source, len(order))
	for _, name := range order {
		q, err := invoke(reg, name, sources)
		if err != nil {
			return nil, err
		}
		sources[name] = b.Subquery(q, aliases[name])
	}
	return invoke(reg, root, sources)
}

// assembleCTE publishes every dependency as a common table expression.
// Every fragment, the root included, is invoked against bare references to
// its dependencies' aliases. The WITH clause lists the dependencies in build
// order, so each binding only refers to bindings before it.
func assembleCTE(reg *Registry, b Builder, root string, order []string, aliases AliasMap) (Query, error) {
	refs := make(map[string]Source, len(order))
	for _, name := range order {
		refs[name] = b.Ref(aliases[name])
	}

	bindings := make([]Binding, 0, len(order))
	for _, name := range order {
		q, err := invoke(reg, name, refs)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Binding{Alias: aliases[name], Query: q})
	}

	q, err := invoke(reg, root, refs)
	if err != nil {
		return nil, err
	}
	return b.With(bindings, q), nil
}
