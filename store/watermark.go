package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/snowfork/lane-relayer/chain/lanes"
)

const (
	cacheMB = 16
	handles = 16
	keySize = lanes.LaneIDLength + 1
)

// Watermark is the highest nonce this relayer has seen confirmed for a lane
// and direction.
type Watermark struct {
	Lane      lanes.LaneID
	Direction lanes.Direction
	Nonce     uint64
}

// WatermarkStore persists watermarks under a per-relayer namespace. Writes
// are monotonic: a watermark never moves backwards.
type WatermarkStore struct {
	raw ethdb.Database
	db  ethdb.Database
	mu  sync.Mutex
}

// prefix carries the id length, so no namespace is a prefix of another.
func prefix(relayerID string) string {
	return fmt.Sprintf("watermark-%d-%s-", len(relayerID), relayerID)
}

// Open opens or creates the LevelDB database at path.
func Open(path string, relayerID string) (*WatermarkStore, error) {
	return open(path, relayerID, false)
}

// OpenReadOnly opens an existing database for inspection. LevelDB locks the
// database directory, so the relayer using it must be stopped.
func OpenReadOnly(path string, relayerID string) (*WatermarkStore, error) {
	return open(path, relayerID, true)
}

func open(path string, relayerID string, readonly bool) (*WatermarkStore, error) {
	raw, err := rawdb.NewLevelDBDatabase(path, cacheMB, handles, "lane-relayer/db/", readonly)
	if err != nil {
		return nil, fmt.Errorf("open watermark store at %s: %w", path, err)
	}
	return newStore(raw, relayerID), nil
}

// NewMemory returns a store that keeps watermarks in memory only.
func NewMemory(relayerID string) *WatermarkStore {
	return newStore(rawdb.NewMemoryDatabase(), relayerID)
}

func newStore(raw ethdb.Database, relayerID string) *WatermarkStore {
	return &WatermarkStore{
		raw: raw,
		db:  rawdb.NewTable(raw, prefix(relayerID)),
	}
}

func key(lane lanes.LaneID, direction lanes.Direction) []byte {
	k := make([]byte, 0, keySize)
	k = append(k, lane[:]...)
	return append(k, byte(direction))
}

// Get returns the stored watermark, and false if none was recorded.
func (s *WatermarkStore) Get(lane lanes.LaneID, direction lanes.Direction) (uint64, bool, error) {
	return s.get(key(lane, direction))
}

func (s *WatermarkStore) get(k []byte) (uint64, bool, error) {
	has, err := s.db.Has(k)
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}
	value, err := s.db.Get(k)
	if err != nil {
		return 0, false, err
	}
	var nonce uint64
	err = rlp.DecodeBytes(value, &nonce)
	if err != nil {
		return 0, false, fmt.Errorf("decode watermark %x: %w", k, err)
	}
	return nonce, true, nil
}

// Advance records nonce if it is beyond the stored watermark. It reports
// whether anything was written.
func (s *WatermarkStore) Advance(lane lanes.LaneID, direction lanes.Direction, nonce uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(lane, direction)
	current, ok, err := s.get(k)
	if err != nil {
		return false, err
	}
	if ok && nonce <= current {
		return false, nil
	}

	value, err := rlp.EncodeToBytes(nonce)
	if err != nil {
		return false, err
	}
	err = s.db.Put(k, value)
	if err != nil {
		return false, fmt.Errorf("write watermark %s/%s: %w", lane, direction, err)
	}
	return true, nil
}

// List returns every watermark of the namespace, in key order.
func (s *WatermarkStore) List() ([]Watermark, error) {
	it := s.db.NewIterator(nil, nil)
	defer it.Release()

	var watermarks []Watermark
	for it.Next() {
		k := it.Key()
		if len(k) != keySize {
			return nil, fmt.Errorf("unexpected watermark key %x", k)
		}
		var nonce uint64
		err := rlp.DecodeBytes(it.Value(), &nonce)
		if err != nil {
			return nil, fmt.Errorf("decode watermark %x: %w", k, err)
		}
		var lane lanes.LaneID
		copy(lane[:], k[:lanes.LaneIDLength])
		watermarks = append(watermarks, Watermark{
			Lane:      lane,
			Direction: lanes.Direction(k[lanes.LaneIDLength]),
			Nonce:     nonce,
		})
	}
	return watermarks, it.Error()
}

func (s *WatermarkStore) Close() error {
	return errors.Join(s.db.Close(), s.raw.Close())
}
