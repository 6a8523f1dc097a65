// Package migrations registers the schema history. Import it for its side
// effects wherever migrate commands run.
package migrations
