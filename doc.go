/*
Package catsync shares a single-writer binary catalog between machines
through a directory replicated by a file hosting service.

The shared directory holds the base catalog and a linear history of binary
deltas, each described by a metadata record. The catsync command downloads
the deltas published since its last run, runs the editor on the local
catalog, then publishes the edit as a new delta.

Libraries live under pkg/:
  - metafile: metadata records of changesets and local checkpoints
  - transfer: zip-aware copies between local and shared storage
  - changeset: the history graph rebuilt from the shared directory
  - delta: diff and patch tools
  - engine: the init-push, init-pull and sync operations
  - lock: the advisory lock of the local catalog
*/
package catsync
