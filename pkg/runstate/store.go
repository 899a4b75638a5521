package runstate

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an untouched Run State stays addressable. Paused
// runs the caller never resumes expire instead of accumulating forever.
const DefaultTTL = time.Hour

// Store is the only resource shared between concurrently active runs. It
// supports lookup, insert and remove by (thread_id, run_id) key; ownership
// of the State itself stays with the run that created it. Other goroutines
// observe a run only through the Status snapshot captured at Put time.
type Store struct {
	states *cache.Cache
}

// entry pairs the live State with the snapshot published for readers.
type entry struct {
	state  *State
	status Status
}

// NewStore creates a store whose entries expire after ttl. A non-positive
// ttl keeps states until they are explicitly removed.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		return &Store{states: cache.New(cache.NoExpiration, 0)}
	}
	return &Store{states: cache.New(ttl, ttl/2)}
}

func key(threadID, runID string) string {
	return threadID + "\x00" + runID
}

// Put registers a run's state, refreshing its TTL and republishing the
// Status snapshot. Only the goroutine owning the State may call it.
func (st *Store) Put(s *State) {
	st.states.SetDefault(key(s.ThreadID, s.RunID), &entry{state: s, status: s.capture()})
}

// Get looks up the live state for a (thread, run) pair. The result may only
// be touched by the goroutine taking over the run.
func (st *Store) Get(threadID, runID string) (*State, bool) {
	v, ok := st.states.Get(key(threadID, runID))
	if !ok {
		return nil, false
	}
	return v.(*entry).state, true
}

// Status returns the snapshot published at the last Put. Unlike Get, the
// result is safe to read while the run is streaming.
func (st *Store) Status(threadID, runID string) (Status, bool) {
	v, ok := st.states.Get(key(threadID, runID))
	if !ok {
		return Status{}, false
	}
	return v.(*entry).status, true
}

// Delete discards a run's state once it reaches a terminal outcome.
func (st *Store) Delete(threadID, runID string) {
	st.states.Delete(key(threadID, runID))
}

// Len reports how many runs are currently addressable.
func (st *Store) Len() int {
	return st.states.ItemCount()
}
