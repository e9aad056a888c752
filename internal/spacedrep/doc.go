// Package spacedrep implements the SM-2 style review scheduler used by Synap.
//
// Every function here is pure: the reference time is always passed in by
// the caller and nothing is read from or written to storage. Callers own
// persistence and must apply Update inside an atomic read-modify-write for
// the item, otherwise concurrent reviews of the same item lose updates.
//
//	st := spacedrep.Initialize(now)
//	st, err := spacedrep.Update(st, spacedrep.Good, now)
//	buckets := spacedrep.Classify(all, now)
package spacedrep
