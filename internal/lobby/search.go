package lobby

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/debounce"
	"k8s.io/klog/v2"
)

// DefaultSearchDelay is the quiet period after the last keystroke.
const DefaultSearchDelay = 500 * time.Millisecond

// SearchTimeout bounds one search request.
var SearchTimeout = 10 * time.Second

// Searcher looks players up. *adminapi.Client implements it.
type Searcher interface {
	SearchPlayers(ctx context.Context, query string) ([]adminapi.PlayerSummary, error)
}

// Results of the latest search.
type Results struct {
	Term    string
	Players []adminapi.PlayerSummary
	Loading bool
	Err     error
}

// Search is a search-as-you-type box: keystrokes are debounced into one
// request, and responses to anything but the latest term are discarded.
type Search struct {
	api       Searcher
	debouncer *debounce.Debouncer
	onResults func(Results)

	mu         sync.Mutex
	generation uint64
	excluded   []string
	results    Results
}

// NewSearch creates a Search. onResults, if not nil, is called whenever the
// results change; it may be called from a timer goroutine.
func NewSearch(api Searcher, delay time.Duration, onResults func(Results)) *Search {
	return &Search{api: api, debouncer: debounce.New(delay), onResults: onResults}
}

// Exclude hides the given player ids from the results, e.g. players already
// invited.
func (s *Search) Exclude(ids []string) {
	s.mu.Lock()
	s.excluded = slices.Clone(ids)
	s.results.Players = s.filter(s.results.Players)
	res := s.results
	s.mu.Unlock()
	s.publish(res)
}

// Results returns the current results.
func (s *Search) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Type handles a change of the search box. Blank terms clear the results
// without querying the service.
func (s *Search) Type(term string) {
	term = strings.TrimSpace(term)
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if term == "" {
		s.results = Results{}
		s.mu.Unlock()
		s.debouncer.Stop()
		s.publish(Results{})
		return
	}
	s.mu.Unlock()
	s.debouncer.Trigger(func() { s.run(gen, term) })
}

// Stop cancels the pending search and discards any response in flight.
func (s *Search) Stop() {
	s.debouncer.Stop()
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *Search) run(gen uint64, term string) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.results = Results{Term: term, Players: s.results.Players, Loading: true}
	res := s.results
	s.mu.Unlock()
	s.publish(res)

	ctx, cancel := context.WithTimeout(context.Background(), SearchTimeout)
	defer cancel()
	players, err := s.api.SearchPlayers(ctx, term)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		klog.V(1).Infof("Search.run: dropping stale results for %q", term)
		return
	}
	if err != nil {
		klog.Warningf("Search.run: search for %q failed: %v", term, err)
		s.results = Results{Term: term, Err: err}
	} else {
		s.results = Results{Term: term, Players: s.filter(players)}
	}
	res = s.results
	s.mu.Unlock()
	s.publish(res)
}

// Caller holds s.mu.
func (s *Search) filter(players []adminapi.PlayerSummary) []adminapi.PlayerSummary {
	if len(s.excluded) == 0 || len(players) == 0 {
		return players
	}
	return slices.DeleteFunc(slices.Clone(players), func(p adminapi.PlayerSummary) bool {
		return slices.Contains(s.excluded, p.UserUID)
	})
}

func (s *Search) publish(res Results) {
	if s.onResults != nil {
		s.onResults(res)
	}
}
