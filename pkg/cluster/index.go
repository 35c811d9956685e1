package cluster

import (
	"errors"
	"fmt"
)

var ErrKeyConflict = errors.New("representative already indexed for another cluster")

// Index maps each cluster's current representative to its id. It keeps the
// reverse direction too so a cluster's key can be found without recomputing
// the consensus.
type Index struct {
	byKey map[string]int
	keyOf []string
}

func NewIndex(sizeHint int) *Index {
	return &Index{
		byKey: make(map[string]int, sizeHint),
		keyOf: make([]string, 0, sizeHint),
	}
}

// Lookup takes a byte slice so candidate buffers can be probed without
// allocating a string per candidate.
func (ix *Index) Lookup(key []byte) (int, bool) {
	id, ok := ix.byKey[string(key)]
	return id, ok
}

func (ix *Index) Get(key string) (int, bool) {
	id, ok := ix.byKey[key]
	return id, ok
}

// Insert maps key to id. A key owned by a different id is rejected rather than
// overwritten, and an id that still owns another key must be Removed first.
func (ix *Index) Insert(key string, id int) error {
	if owner, ok := ix.byKey[key]; ok {
		if owner == id {
			return nil
		}
		return fmt.Errorf("%w: %s is cluster %d, not %d", ErrKeyConflict, key, owner, id)
	}
	for len(ix.keyOf) <= id {
		ix.keyOf = append(ix.keyOf, "")
	}
	if cur := ix.keyOf[id]; cur != "" {
		return fmt.Errorf("cluster %d is still indexed as %s", id, cur)
	}
	ix.byKey[key] = id
	ix.keyOf[id] = key
	return nil
}

func (ix *Index) Remove(key string) {
	id, ok := ix.byKey[key]
	if !ok {
		return
	}
	delete(ix.byKey, key)
	ix.keyOf[id] = ""
}

// Rekey moves id from oldKey to newKey as a single step. Nothing changes when
// newKey belongs to another cluster.
func (ix *Index) Rekey(oldKey, newKey string, id int) error {
	if oldKey == newKey {
		return nil
	}
	if owner, ok := ix.byKey[newKey]; ok && owner != id {
		return fmt.Errorf("%w: %s is cluster %d, not %d", ErrKeyConflict, newKey, owner, id)
	}
	ix.Remove(oldKey)
	return ix.Insert(newKey, id)
}

// KeyOf returns the key currently stored for id.
func (ix *Index) KeyOf(id int) (string, bool) {
	if id < 0 || id >= len(ix.keyOf) || ix.keyOf[id] == "" {
		return "", false
	}
	return ix.keyOf[id], true
}

func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Range visits every key/id pair; order is unspecified.
func (ix *Index) Range(fn func(key string, id int) bool) {
	for k, id := range ix.byKey {
		if !fn(k, id) {
			return
		}
	}
}
