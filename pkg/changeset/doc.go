// Package changeset reconstructs the history of a shared catalog.
//
// The history is published as a set of records in the shared directory:
// one base record describing the full catalog, then one record per delta
// archive naming its parent. Build links these records and checks that
// they form a single linear chain, from the base to the current tip.
package changeset
