// Package branch implements the content-addressed commit graph of spec
// §4.11: immutable objects, commits that point at a DatabaseState,
// named refs, and the checkout procedure that materializes a commit's
// state onto the working data/schema files.
package branch
