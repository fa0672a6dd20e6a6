package slots

import (
	"sync"

	"github.com/google/uuid"
)

var roundLabels = []string{"Round A", "Round B", "Round C", "Round D"}

// Label is an administrative grouping assigned at registration. It has no
// bearing on bracket pairing.
type Label struct {
	Name  string
	Index int
}

// Cycler rotates through the round labels independently per tournament.
type Cycler struct {
	mu   sync.Mutex
	next map[uuid.UUID]int
}

func NewCycler() *Cycler {
	return &Cycler{next: make(map[uuid.UUID]int)}
}

// SeedIfCold positions a tournament's cycle after n prior registrations,
// unless the tournament has already been seeded in this process.
func (c *Cycler) SeedIfCold(tournamentID uuid.UUID, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.next[tournamentID]; !ok {
		c.next[tournamentID] = n % len(roundLabels)
	}
}

// Next returns the current label and advances the cycle by one.
func (c *Cycler) Next(tournamentID uuid.UUID) Label {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.next[tournamentID]
	c.next[tournamentID] = (i + 1) % len(roundLabels)
	return Label{Name: roundLabels[i], Index: i}
}

func (c *Cycler) Forget(tournamentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.next, tournamentID)
}
