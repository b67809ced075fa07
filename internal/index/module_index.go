// Package index holds the per-project completion index: first-character
// buckets of ModuleRecord. The index carries no lock of its own; the owning
// workspace state serializes all mutation and guards reads.
package index

import (
	"strings"
	"unicode"

	"github.com/standardbeagle/lmi/internal/project"
	"github.com/standardbeagle/lmi/internal/types"
)

// ModuleIndex maps a single-character prefix (the first character of the
// module name, case-folded) to an insertion-ordered list of records. A record
// lives under exactly one bucket. Insertion order within a bucket is preserved
// so removal stays deterministic.
type ModuleIndex struct {
	buckets map[rune][]types.ModuleRecord
	size    int
}

// New creates an empty module index.
func New() *ModuleIndex {
	return &ModuleIndex{
		buckets: make(map[rune][]types.ModuleRecord),
	}
}

// bucketKey folds the first rune of a module name or query prefix to lower
// case so "F" finds "fooBar".
func bucketKey(s string) (rune, bool) {
	for _, r := range s {
		return unicode.ToLower(r), true
	}
	return 0, false
}

// Put appends the record to its bucket. Put is not idempotent: the indexer is
// responsible for calling it exactly once per (file, project) pair.
func (m *ModuleIndex) Put(rec types.ModuleRecord) {
	key, ok := bucketKey(rec.ModuleName)
	if !ok {
		return
	}
	m.buckets[key] = append(m.buckets[key], rec)
	m.size++
}

// Remove filters the record's bucket by its stable key (the hash of the
// owning file path), never by instance identity: incremental updates
// reconstruct records rather than retaining the stored ones.
func (m *ModuleIndex) Remove(rec types.ModuleRecord) {
	m.RemoveByFilePath(rec.FilePath, rec.ModuleName)
}

// RemoveByFilePath removes the record for the given file from the bucket its
// module name hashes into.
func (m *ModuleIndex) RemoveByFilePath(filePath, moduleName string) {
	key, ok := bucketKey(moduleName)
	if !ok {
		return
	}
	target := types.RecordKey(filePath)
	bucket := m.buckets[key]
	for i, rec := range bucket {
		if rec.Key() == target {
			m.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			m.size--
			break
		}
	}
	if len(m.buckets[key]) == 0 {
		delete(m.buckets, key)
	}
}

// RemoveUnderDir drops every record whose owning file path lies under the
// given workspace-relative directory. Used when a delete event denotes a
// directory. Returns the number of records removed.
func (m *ModuleIndex) RemoveUnderDir(dir string) int {
	removed := 0
	for key, bucket := range m.buckets {
		kept := bucket[:0]
		for _, rec := range bucket {
			if project.PathUnder(rec.FilePath, dir) {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(m.buckets, key)
		} else {
			m.buckets[key] = kept
		}
	}
	m.size -= removed
	return removed
}

// Get returns the bucket for the first character of the query prefix in
// insertion order. Always returns a (possibly empty) list, never an error.
func (m *ModuleIndex) Get(prefix string) []types.ModuleRecord {
	key, ok := bucketKey(strings.TrimSpace(prefix))
	if !ok {
		return nil
	}
	return m.buckets[key]
}

// Len returns the total number of records across all buckets.
func (m *ModuleIndex) Len() int {
	return m.size
}
