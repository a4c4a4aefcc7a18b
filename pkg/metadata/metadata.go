// Package metadata is an explicit weak-mapping side channel standing in
// for a process-wide reflection facility: every piece of metadata keyed
// on a target, type, or method is a read or write against one of these
// tables, scoped to a single Weaver instance so independent weavers
// never see each other's annotations.
package metadata

import (
	"reflect"
	"sync"
)

// Table is a reflect.Type-keyed store of arbitrary annotation values,
// further keyed by a string (a method name, or a bare key such as
// "aspect" or "order"). It stands in for "@annotation"-style metadata
// that would otherwise live on a reflection facility.
type Table struct {
	mu   sync.RWMutex
	data map[reflect.Type]map[string]any
}

// NewTable builds an empty metadata table.
func NewTable() *Table {
	return &Table{data: make(map[reflect.Type]map[string]any)}
}

// Set records value under key for typ. An empty key ("") is used for
// type-level metadata (e.g. @within, @target); a method name is used for
// method-level metadata (e.g. @annotation, argNames).
func (t *Table) Set(typ reflect.Type, key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.data[typ]
	if !ok {
		bucket = make(map[string]any)
		t.data[typ] = bucket
	}
	bucket[key] = value
}

// Get returns the value stored under key for typ, and whether it was
// present at all.
func (t *Table) Get(typ reflect.Type, key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bucket, ok := t.data[typ]
	if !ok {
		return nil, false
	}
	v, ok := bucket[key]
	return v, ok
}

// Has reports whether typ carries any value (including a nil one) under
// key. This is the primitive that @target/@within/@annotation/@args rest
// on: presence of the key, not its value, is what matters.
func (t *Table) Has(typ reflect.Type, key string) bool {
	_, ok := t.Get(typ, key)
	return ok
}

// Delete removes key from typ's bucket, if present.
func (t *Table) Delete(typ reflect.Type, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if bucket, ok := t.data[typ]; ok {
		delete(bucket, key)
	}
}

// Clear empties the table. Called by Weaver.Dispose.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = make(map[reflect.Type]map[string]any)
}
