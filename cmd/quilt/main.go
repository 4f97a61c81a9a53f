// Package main provides the quilt CLI for working with fragment files.
//
// The CLI supports:
//   - build: Assemble a fragment and its dependencies into one SQL query
//   - order: Show the build order and aliases of a fragment
//   - doctor: Run health checks on a fragment file
//   - init: Create quilt.yaml and a starter fragment file
//   - config: Show the effective configuration
//
// Usage:
//
//	quilt [flags] <command>
package main

func main() {
	Execute()
}
