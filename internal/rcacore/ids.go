package rcacore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// agentIDSequencer hands out stable, human-readable agent ids derived from
// a hypothesis category: the lowercased category name, then a "-<n>" suffix
// starting at 1 for the first agent of that category within the same
// investigation and incrementing on each repeat.
type agentIDSequencer struct {
	mu     sync.Mutex
	counts map[string]int
}

func newAgentIDSequencer() *agentIDSequencer {
	return &agentIDSequencer{counts: make(map[string]int)}
}

func (s *agentIDSequencer) next(category Category) string {
	base := strings.ToLower(string(category))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[base]++
	return fmt.Sprintf("%s-%d", base, s.counts[base])
}
