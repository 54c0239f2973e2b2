package memstore

import (
	"sync"

	"github.com/opla/zoauth/storage"
)

var _ storage.Store = (*MemStore)(nil)

// MemStore is an in-memory Store used for tests and single-process setups.
type MemStore struct {
	tables map[string]*memTable
	lock   sync.Mutex
}

func New() *MemStore {
	return &MemStore{tables: make(map[string]*memTable)}
}

func (ms *MemStore) Table(name string) storage.Table {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	table, ok := ms.tables[name]
	if !ok {
		table = newMemTable()
		ms.tables[name] = table
	}
	return table
}

func (ms *MemStore) Load() error  { return nil }
func (ms *MemStore) Flush() error { return nil }
func (ms *MemStore) Close() error { return nil }

func (ms *MemStore) Reset() error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.tables = make(map[string]*memTable)
	return nil
}

var _ storage.Table = (*memTable)(nil)

type memTable struct {
	docs map[string][]byte
	keys []string // insertion order, drives NextItem scans
	lock sync.RWMutex
}

func newMemTable() *memTable {
	return &memTable{docs: make(map[string][]byte)}
}

func (mt *memTable) GetItem(key string) ([]byte, error) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	doc, ok := mt.docs[key]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

func (mt *memTable) SetItem(key string, doc []byte) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	if _, ok := mt.docs[key]; !ok {
		mt.keys = append(mt.keys, key)
	}
	mt.docs[key] = cloneDoc(doc)
	return nil
}

func (mt *memTable) InsertItem(key string, doc []byte) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	if _, ok := mt.docs[key]; ok {
		return storage.ErrDuplicateKey
	}
	mt.keys = append(mt.keys, key)
	mt.docs[key] = cloneDoc(doc)
	return nil
}

func (mt *memTable) DeleteItem(key string) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	if _, ok := mt.docs[key]; !ok {
		return nil
	}
	delete(mt.docs, key)
	for i, k := range mt.keys {
		if k == key {
			mt.keys = append(mt.keys[:i], mt.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (mt *memTable) NextItem(match func(doc []byte) bool) ([]byte, error) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	for _, key := range mt.keys {
		doc := mt.docs[key]
		if match(doc) {
			return cloneDoc(doc), nil
		}
	}
	return nil, nil
}

func (mt *memTable) GetItems(match func(doc []byte) bool) ([][]byte, error) {
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	docs := make([][]byte, 0)
	for _, key := range mt.keys {
		doc := mt.docs[key]
		if match == nil || match(doc) {
			docs = append(docs, cloneDoc(doc))
		}
	}
	return docs, nil
}

func cloneDoc(doc []byte) []byte {
	clone := make([]byte, len(doc))
	copy(clone, doc)
	return clone
}
