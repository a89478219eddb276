// Package directory implements the tile directory: a growable, bit-packed
// map from TileKey to TileAddress built on a cuckoo hash with two
// independently seeded subtables.
//
// The layout is deliberately simple — each subtable is a flat slice of
// optional entries indexed by hash modulo the table size — so that it can
// be serialized into the metadata texture gpurender uploads to the GPU,
// and so the probe sequence a shader performs while sampling the cache
// matches the one this package performs while inserting.
package directory

import (
	"math/bits"
	"math/rand"

	"github.com/gogpu/virtex"
)

// InsertResult reports whether Insert placed a new entry or replaced the
// address of an existing one.
type InsertResult int

const (
	// Inserted means the key had no prior entry.
	Inserted InsertResult = iota
	// Replaced means the key already had an entry, whose address was
	// updated in place.
	Replaced
)

type entry struct {
	key     virtex.TileKey
	address virtex.TileAddress
}

type subtable struct {
	buckets []*entry
	seed    uint32
}

func newSubtable(seed uint32, bucketSize uint32) subtable {
	return subtable{
		buckets: make([]*entry, bucketSize),
		seed:    seed,
	}
}

func (s *subtable) bucketIndex(key virtex.TileKey) uint32 {
	return key.Hash(s.seed) % uint32(len(s.buckets))
}

func (s *subtable) get(key virtex.TileKey) (virtex.TileAddress, bool) {
	b := s.buckets[s.bucketIndex(key)]
	if b != nil && b.key == key {
		return b.address, true
	}
	return virtex.AddressNone, false
}

type subinsertKind int

const (
	subInserted subinsertKind = iota
	subReplaced
	subEjected
)

func (s *subtable) insert(key virtex.TileKey, address virtex.TileAddress) (subinsertKind, entry) {
	idx := s.bucketIndex(key)
	b := s.buckets[idx]
	switch {
	case b == nil:
		s.buckets[idx] = &entry{key: key, address: address}
		return subInserted, entry{}
	case b.key == key:
		b.address = address
		return subReplaced, entry{}
	default:
		old := *b
		s.buckets[idx] = &entry{key: key, address: address}
		return subEjected, old
	}
}

func (s *subtable) remove(key virtex.TileKey) (virtex.TileAddress, bool) {
	idx := s.bucketIndex(key)
	b := s.buckets[idx]
	if b == nil || b.key != key {
		return virtex.AddressNone, false
	}
	s.buckets[idx] = nil
	return b.address, true
}

// Directory is the growable cuckoo-hashed tile directory. The zero value
// is not usable; construct one with New or WithSeeds.
type Directory struct {
	subtables [2]subtable
}

// New creates a directory with two subtables of initialBucketSize buckets
// each, seeded from the default random source. initialBucketSize must be
// a power of two no smaller than 2.
func New(initialBucketSize uint32) *Directory {
	return WithSeeds([2]uint32{rand.Uint32(), rand.Uint32()}, initialBucketSize) //nolint:gosec // non-cryptographic bucket seed
}

// WithSeeds creates a directory with explicit subtable seeds, primarily
// for deterministic tests.
func WithSeeds(seeds [2]uint32, initialBucketSize uint32) *Directory {
	return &Directory{
		subtables: [2]subtable{
			newSubtable(seeds[0], initialBucketSize),
			newSubtable(seeds[1], initialBucketSize),
		},
	}
}

// Get looks up the cache address for key, if present in either subtable.
func (d *Directory) Get(key virtex.TileKey) (virtex.TileAddress, bool) {
	for i := range d.subtables {
		if addr, ok := d.subtables[i].get(key); ok {
			return addr, true
		}
	}
	return virtex.AddressNone, false
}

// Insert places key → address in the directory, displacing existing
// entries between the two subtables (cuckoo-style) as needed. If every
// subtable slot along the probe chain is occupied by a different key
// after log2(bucketSize) rounds, the directory rehashes to double
// capacity and retries the insert against the new table.
func (d *Directory) Insert(key virtex.TileKey, address virtex.TileAddress) InsertResult {
	for i := range d.subtables {
		st := &d.subtables[i]
		if b := st.buckets[st.bucketIndex(key)]; b != nil && b.key == key {
			b.address = address
			return Replaced
		}
	}

	bucketSize := uint32(len(d.subtables[0].buckets))
	maxChain := bits.Len32(bucketSize) - 1

	cur := entry{key: key, address: address}
	for range maxChain {
		for i := range d.subtables {
			kind, ejected := d.subtables[i].insert(cur.key, cur.address)
			switch kind {
			case subInserted:
				return Inserted
			case subReplaced:
				return Replaced
			case subEjected:
				virtex.Logger().Debug("directory: entry ejected", "subtable", i)
				cur = ejected
			}
		}
	}

	virtex.Logger().Debug("directory: displacement chain exhausted, rehashing", "old_bucket_size", bucketSize)
	d.rebuild(bucketSize * 2)
	return d.Insert(cur.key, cur.address)
}

// Remove deletes key's entry, if present, and returns its former address.
func (d *Directory) Remove(key virtex.TileKey) (virtex.TileAddress, bool) {
	for i := range d.subtables {
		if addr, ok := d.subtables[i].remove(key); ok {
			return addr, true
		}
	}
	return virtex.AddressNone, false
}

// rebuild reseeds both subtables at newBucketSize and reinserts every
// previously occupied entry. Reinsertion goes through Insert, which can
// itself trigger further growth; this terminates because growth strictly
// increases capacity.
func (d *Directory) rebuild(newBucketSize uint32) {
	old := d.subtables
	d.subtables = [2]subtable{
		newSubtable(rand.Uint32(), newBucketSize), //nolint:gosec // non-cryptographic bucket seed
		newSubtable(rand.Uint32(), newBucketSize), //nolint:gosec // non-cryptographic bucket seed
	}
	for _, st := range old {
		for _, b := range st.buckets {
			if b != nil {
				d.Insert(b.key, b.address)
			}
		}
	}
}

// BucketSize returns the number of buckets in each subtable.
func (d *Directory) BucketSize() int {
	return len(d.subtables[0].buckets)
}

// Seeds returns the current per-subtable hash seeds, exposed so gpurender
// can pack them into the metadata texture's uniform block for the GPU
// shader to reproduce the same probe sequence.
func (d *Directory) Seeds() [2]uint32 {
	return [2]uint32{d.subtables[0].seed, d.subtables[1].seed}
}

// Bucket returns the key/address pair occupying bucket index in subtable
// 0 or 1, if any. Used by gpurender to pack the directory into the
// metadata texture.
func (d *Directory) Bucket(subtableIdx int, bucketIdx int) (virtex.TileKey, virtex.TileAddress, bool) {
	b := d.subtables[subtableIdx].buckets[bucketIdx]
	if b == nil {
		return 0, virtex.AddressNone, false
	}
	return b.key, b.address, true
}
