// Package nonce issues (api key index, nonce) tickets.
//
// Every API key slot owns a counter guarded by its own lock, so issuance on
// one slot never blocks another. Within a slot, tickets are handed out in
// strictly increasing nonce order and a nonce is never issued twice.
package nonce

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/internal/metrics"
	"github.com/banky/go-lighter/types"
	"github.com/samber/mo"
)

// Ticket is the exclusive right to sign one transaction with Nonce under
// KeyIndex.
type Ticket struct {
	KeyIndex uint8
	Nonce    int64
}

func (t Ticket) String() string {
	return fmt.Sprintf("Ticket{key=%d nonce=%d}", t.KeyIndex, t.Nonce)
}

// NonceSource returns the exchange's next expected nonce for a key.
type NonceSource interface {
	NextNonce(ctx context.Context, accountIndex int64, apiKeyIndex uint8) (int64, error)
}

type slot struct {
	mu       sync.Mutex
	keyIndex uint8
	nonce    int64
	inUse    bool
	granted  bool
}

// SlotState is a point-in-time copy of a slot.
type SlotState struct {
	KeyIndex  uint8
	NextNonce int64
	InUse     bool
	Granted   bool
}

type Config struct {
	// StartIndex and EndIndex bound the key pool, both inclusive
	StartIndex uint8
	EndIndex   uint8
	// InitialNonce seeds every slot. Use Sync or Seed for per-key values.
	InitialNonce int64
}

type Allocator struct {
	slots  []slot
	start  uint8
	cursor atomic.Uint32
}

// New creates an allocator over [StartIndex, EndIndex].
func New(cfg Config) (*Allocator, error) {
	if cfg.EndIndex < cfg.StartIndex {
		return nil, fmt.Errorf(
			"invalid key range [%d, %d]",
			cfg.StartIndex,
			cfg.EndIndex,
		)
	}
	if cfg.EndIndex > constants.MAX_API_KEY_INDEX {
		return nil, fmt.Errorf(
			"key index %d exceeds maximum %d",
			cfg.EndIndex,
			constants.MAX_API_KEY_INDEX,
		)
	}
	if cfg.InitialNonce < constants.MIN_NONCE {
		return nil, fmt.Errorf("invalid initial nonce %d", cfg.InitialNonce)
	}

	n := int(cfg.EndIndex-cfg.StartIndex) + 1
	a := &Allocator{
		slots: make([]slot, n),
		start: cfg.StartIndex,
	}
	for i := range a.slots {
		a.slots[i].keyIndex = cfg.StartIndex + uint8(i)
		a.slots[i].nonce = cfg.InitialNonce
	}

	// The first fresh allocation lands on StartIndex
	a.cursor.Store(uint32(n - 1))

	return a, nil
}

// Size returns the number of key slots in the pool.
func (a *Allocator) Size() int {
	return len(a.slots)
}

func (a *Allocator) slot(keyIndex uint8) (*slot, error) {
	if keyIndex < a.start || int(keyIndex-a.start) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownKeyIndex, keyIndex)
	}
	return &a.slots[keyIndex-a.start], nil
}

// AllocateFresh picks the next slot that is not in use, marks it in use and
// returns its current nonce. Slots are scanned round-robin, starting after
// the previous pick.
func (a *Allocator) AllocateFresh() (Ticket, error) {
	n := uint32(len(a.slots))
	begin := a.cursor.Add(1)

	for i := uint32(0); i < n; i++ {
		idx := (begin + i) % n
		s := &a.slots[idx]

		s.mu.Lock()
		if s.inUse {
			s.mu.Unlock()
			continue
		}
		s.inUse = true
		s.granted = true
		t := Ticket{KeyIndex: s.keyIndex, Nonce: s.nonce}
		s.nonce++
		s.mu.Unlock()

		// Later scans resume after this slot
		a.cursor.Store(idx)
		metrics.TicketIssued("fresh", t.KeyIndex, 1)
		return t, nil
	}

	return Ticket{}, types.ErrNoFreeKey
}

// ContinueKey returns the next nonce for a key previously granted by
// AllocateFresh. The in-use flag is neither checked nor changed.
func (a *Allocator) ContinueKey(keyIndex uint8) (Ticket, error) {
	tickets, err := a.reserve(keyIndex, 1)
	if err != nil {
		return Ticket{}, err
	}
	metrics.TicketIssued("continue", keyIndex, 1)
	return tickets[0], nil
}

// Next allocates a fresh key when keyIndex is None and continues keyIndex
// otherwise.
func (a *Allocator) Next(keyIndex mo.Option[uint8]) (Ticket, error) {
	if k, ok := keyIndex.Get(); ok {
		return a.ContinueKey(k)
	}
	return a.AllocateFresh()
}

// Reserve issues n consecutive nonces for a granted key in one step.
func (a *Allocator) Reserve(keyIndex uint8, n int) ([]Ticket, error) {
	if n <= 0 {
		return nil, fmt.Errorf("reserve count must be positive, got %d", n)
	}
	tickets, err := a.reserve(keyIndex, n)
	if err != nil {
		return nil, err
	}
	metrics.TicketIssued("reserve", keyIndex, n)
	return tickets, nil
}

func (a *Allocator) reserve(keyIndex uint8, n int) ([]Ticket, error) {
	s, err := a.slot(keyIndex)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.granted {
		return nil, fmt.Errorf(
			"%w: %d was never allocated",
			types.ErrUnknownKeyIndex,
			keyIndex,
		)
	}

	tickets := make([]Ticket, n)
	for i := range tickets {
		tickets[i] = Ticket{KeyIndex: keyIndex, Nonce: s.nonce}
		s.nonce++
	}
	return tickets, nil
}

// Release marks a slot as free for fresh allocation. The nonce counter is
// left untouched. Releasing a free slot is a no-op.
func (a *Allocator) Release(keyIndex uint8) error {
	s, err := a.slot(keyIndex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.inUse = false
	s.mu.Unlock()

	return nil
}

// Seed raises the next nonce of a slot to nonce. Lower values are ignored so
// a slot never goes backwards.
func (a *Allocator) Seed(keyIndex uint8, nonce int64) error {
	s, err := a.slot(keyIndex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if nonce > s.nonce {
		s.nonce = nonce
	}
	s.mu.Unlock()

	return nil
}

// Sync seeds every slot from the exchange's record of the next nonce.
func (a *Allocator) Sync(
	ctx context.Context,
	source NonceSource,
	accountIndex int64,
) error {
	for i := range a.slots {
		keyIndex := a.slots[i].keyIndex

		next, err := source.NextNonce(ctx, accountIndex, keyIndex)
		if err != nil {
			return fmt.Errorf("failed to fetch nonce for key %d: %w", keyIndex, err)
		}

		if err := a.Seed(keyIndex, next); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the state of every slot, ordered by key index.
func (a *Allocator) Snapshot() []SlotState {
	out := make([]SlotState, len(a.slots))
	for i := range a.slots {
		s := &a.slots[i]
		s.mu.Lock()
		out[i] = SlotState{
			KeyIndex:  s.keyIndex,
			NextNonce: s.nonce,
			InUse:     s.inUse,
			Granted:   s.granted,
		}
		s.mu.Unlock()
	}
	return out
}

// KeyIndexes lists the key indexes of the pool.
func (a *Allocator) KeyIndexes() []uint8 {
	out := make([]uint8, len(a.slots))
	for i := range a.slots {
		out[i] = a.slots[i].keyIndex
	}
	return out
}
