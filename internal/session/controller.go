// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Corphon/SeriesMoodRecap/internal/errors"
	"github.com/Corphon/SeriesMoodRecap/internal/models"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

// ErrSuperseded is returned when a newer Search or Select started while this
// one was waiting on the network. Its results were discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// MsgNotACandidate is reported when Select names a series the last search
// did not return.
const MsgNotACandidate = "Please pick a series from the search results."

type Searcher interface {
	Search(ctx context.Context, query string) (models.CandidateList, error)
}

type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (*models.SeriesDetail, error)
}

type RecapGenerator interface {
	GenerateRecap(ctx context.Context, detail *models.SeriesDetail) (string, error)
}

// Listener receives a snapshot after every state transition.
type Listener func(State)

// Controller owns the State of one session. Network calls run without the
// lock held; every mutation goes through apply.
type Controller struct {
	id       string
	searcher Searcher
	details  DetailFetcher
	recaps   RecapGenerator
	now      func() time.Time

	// notifyMu orders deliveries: snapshots reach listeners in the order
	// the mutations happened. Listeners must not call back into apply.
	notifyMu sync.Mutex

	mu         sync.Mutex
	state      State
	listeners  map[int]Listener
	nextID     int
	lastActive time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

// NewController creates a controller with empty state.
func NewController(id string, searcher Searcher, details DetailFetcher, recaps RecapGenerator) *Controller {
	return &Controller{
		id:         id,
		searcher:   searcher,
		details:    details,
		recaps:     recaps,
		now:        time.Now,
		listeners:  make(map[int]Listener),
		lastActive: time.Now(),
		done:       make(chan struct{}),
	}
}

func (c *Controller) ID() string {
	return c.id
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.snapshot()
}

// Subscribe registers fn for every transition until the returned func is called.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Watch subscribes fn and hands it the current state first, ordered with
// every later transition.
func (c *Controller) Watch(fn Listener) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	unsubscribe := c.Subscribe(fn)
	fn(c.State())
	return unsubscribe
}

// Done is closed when the session ends.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close ends the session and drops all listeners.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.listeners = make(map[int]Listener)
		c.mu.Unlock()
		close(c.done)
	})
}

// LastActive is the time of the most recent operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// SetQuery records a direct edit of the query text.
func (c *Controller) SetQuery(query string) State {
	snap, _ := c.apply(0, func(s *State) { s.Query = query })
	return snap
}

// Search runs the search step. A blank query clears results, selection and
// recap and fails without calling the provider.
func (c *Controller) Search(ctx context.Context, query string) (State, error) {
	if strings.TrimSpace(query) == "" {
		emptyErr := apperrors.NewEmptyQueryError()
		snap, _ := c.apply(0, func(s *State) {
			s.Generation++
			s.Query = query
			s.clearResults()
			s.Loading = false
			s.Error = emptyErr.Error()
		})
		return snap, emptyErr
	}

	gen, _ := c.begin(func(s *State) bool {
		s.Query = query
		s.clearResults()
		return true
	})

	var err error
	c.withLoading(gen, func() {
		var list models.CandidateList
		list, err = c.searcher.Search(ctx, query)
		c.apply(gen, func(s *State) {
			if err != nil {
				s.Error = err.Error()
				return
			}
			s.Candidates = list
		})
	})

	return c.result(gen, err)
}

// Select fetches the detail of id and, only when that succeeds, generates
// the recap for it. Each step asserts and clears the loading flag itself.
// Only ids from the current results are accepted; anything else fails
// without touching the state or the network.
func (c *Controller) Select(ctx context.Context, id string) (State, error) {
	gen, ok := c.begin(func(s *State) bool {
		if !s.offers(id) {
			return false
		}
		s.Error = ""
		s.Recap = ""
		return true
	})
	if !ok {
		return c.State(), apperrors.NewValidationError(MsgNotACandidate, nil)
	}

	detail, err := c.fetchDetail(ctx, gen, id)
	if err != nil {
		return c.result(gen, err)
	}
	if !c.isCurrent(gen) {
		return c.State(), ErrSuperseded
	}

	err = c.generateRecap(ctx, gen, detail)
	return c.result(gen, err)
}

func (c *Controller) fetchDetail(ctx context.Context, gen uint64, id string) (detail *models.SeriesDetail, err error) {
	c.withLoading(gen, func() {
		detail, err = c.details.FetchDetail(ctx, id)
		c.apply(gen, func(s *State) {
			if err != nil {
				s.Error = err.Error()
				return
			}
			s.Selected = detail
		})
	})
	return detail, err
}

func (c *Controller) generateRecap(ctx context.Context, gen uint64, detail *models.SeriesDetail) (err error) {
	c.withLoading(gen, func() {
		var recap string
		recap, err = c.recaps.GenerateRecap(ctx, detail)
		c.apply(gen, func(s *State) {
			if err != nil {
				s.Error = err.Error()
				return
			}
			s.Recap = recap
		})
	})
	return err
}

// begin runs mutate and, when it accepts, starts a new generation and
// returns it. A rejecting mutate must leave the state untouched.
// Listeners are notified by the loading transition that follows.
func (c *Controller) begin(mutate func(*State) bool) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !mutate(&c.state) {
		return 0, false
	}
	c.state.Generation++
	c.lastActive = c.now()
	return c.state.Generation, true
}

// withLoading asserts the loading flag around fn and clears it on every
// exit path, panics included.
func (c *Controller) withLoading(gen uint64, fn func()) {
	c.apply(gen, func(s *State) { s.Loading = true })
	defer c.apply(gen, func(s *State) { s.Loading = false })
	fn()
}

// apply mutates the state if gen is still current (0 means unconditional)
// and notifies listeners outside the state lock.
func (c *Controller) apply(gen uint64, mutate func(*State)) (State, bool) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if gen != 0 && gen != c.state.Generation {
		snap := c.state.snapshot()
		c.mu.Unlock()
		return snap, false
	}
	mutate(&c.state)
	c.lastActive = c.now()
	snap := c.state.snapshot()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap, true
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Generation == gen
}

func (c *Controller) result(gen uint64, err error) (State, error) {
	if !c.isCurrent(gen) {
		utils.GetLogger().Debug("dropping stale result", map[string]interface{}{
			"session":    c.id,
			"generation": gen,
		})
		return c.State(), ErrSuperseded
	}
	return c.State(), err
}
