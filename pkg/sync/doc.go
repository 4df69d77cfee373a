// Package sync implements the manifest-diff push/pull engine of spec
// §4.10: it compares a local and a remote storage.Store's file
// manifests, uploads or downloads whatever diverges, and collects
// per-file errors without letting one failure abort the rest.
package sync
