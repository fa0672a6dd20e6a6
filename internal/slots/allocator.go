package slots

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// NoSlot is returned when every slot of a tournament is taken.
const NoSlot = -1

// Allocator hands out unique seed positions per tournament. Its state is
// derived from stored registrations through Seed and is never authoritative.
type Allocator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	taken map[uuid.UUID]map[int]struct{}
}

func NewAllocator() *Allocator {
	return NewAllocatorWithSource(rand.NewPCG(newSeed(), newSeed()))
}

// NewAllocatorWithSource makes slot selection deterministic for tests.
func NewAllocatorWithSource(src rand.Source) *Allocator {
	return &Allocator{
		rng:   rand.New(src),
		taken: make(map[uuid.UUID]map[int]struct{}),
	}
}

func newSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Seed overwrites the taken set of a tournament.
func (a *Allocator) Seed(tournamentID uuid.UUID, taken []int) {
	set := make(map[int]struct{}, len(taken))
	for _, s := range taken {
		set[s] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.taken[tournamentID] = set
}

func (a *Allocator) IsSeeded(tournamentID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.taken[tournamentID]
	return ok
}

// Allocate picks a free slot in [1, capacity] uniformly at random and marks it
// taken, or returns NoSlot.
func (a *Allocator) Allocate(tournamentID uuid.UUID, capacity int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	set, ok := a.taken[tournamentID]
	if !ok {
		set = make(map[int]struct{})
		a.taken[tournamentID] = set
	}

	free := make([]int, 0, capacity)
	for s := 1; s <= capacity; s++ {
		if _, used := set[s]; !used {
			free = append(free, s)
		}
	}
	if len(free) == 0 {
		return NoSlot
	}

	slot := free[a.rng.IntN(len(free))]
	set[slot] = struct{}{}
	return slot
}

// Release returns a slot to the pool, e.g. after a failed write.
func (a *Allocator) Release(tournamentID uuid.UUID, slot int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if set, ok := a.taken[tournamentID]; ok {
		delete(set, slot)
	}
}

// Forget drops the cached state of a tournament so the next use re-seeds it.
func (a *Allocator) Forget(tournamentID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.taken, tournamentID)
}
