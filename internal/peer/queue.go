package peer

import (
	"sync"

	pion "github.com/pion/webrtc/v4"
)

// candidateQueue holds remote candidates that arrived before the remote
// description was set.
type candidateQueue struct {
	mu      sync.Mutex
	ready   bool
	pending []pion.ICECandidateInit
}

// add queues c and reports false, or reports true when c may be applied now.
func (q *candidateQueue) add(c pion.ICECandidateInit) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ready {
		return true
	}
	q.pending = append(q.pending, c)
	return false
}

// release marks the remote description as set and returns what was queued,
// in arrival order.
func (q *candidateQueue) release() []pion.ICECandidateInit {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ready = true
	out := q.pending
	q.pending = nil
	return out
}

func (q *candidateQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
