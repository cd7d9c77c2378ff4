package engine

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ebrevdo/ifttt-lint/directive"
	"github.com/ebrevdo/ifttt-lint/pool"
)

// parseResult is what one directive.Extract call produces, memoized
// per absolute path.
type parseResult struct {
	directives []directive.Directive
	err        error
}

// parseCache memoizes directive.Extract results by path across both
// the source-side and target-side resolution passes, so a file
// referenced as both an IfChange source and a ThenChange target is
// only ever parsed once.
//
// start fans a path out to the pool without blocking the caller;
// get blocks until that path's parse completes, joining an
// already-started (or already-finished) parse rather than starting a
// second one. A caller that wants the pool to actually run several
// files concurrently must call start for the whole file set first and
// only then call get on each of them — calling get directly on each
// file in turn serializes submission one file at a time regardless of
// how large the pool is.
//
// A mutex-guarded map of completed results handles the steady-state
// read path; singleflight.Group collapses concurrent callers of the
// same path (a start goroutine racing a direct get, or two get calls
// for a file that is both an IfChange source and a ThenChange target)
// into one pool submission.
type parseCache struct {
	pool *pool.Pool[parseResult]
	sf   singleflight.Group

	mu   sync.Mutex
	done map[string]parseResult
}

func newParseCache(parallelism int) *parseCache {
	return &parseCache{
		pool: pool.New[parseResult](parallelism),
		done: make(map[string]parseResult),
	}
}

// start schedules path for parsing on its own goroutine and returns
// immediately. Safe to call from a single goroutine in a tight loop
// over many paths to fan the whole set out to the pool before
// anything awaits a result.
func (c *parseCache) start(path string) {
	c.mu.Lock()
	_, done := c.done[path]
	c.mu.Unlock()
	if done {
		return
	}
	go c.parse(path)
}

// parse runs path through the pool at most once (via singleflight)
// and returns the result, blocking until it is available.
func (c *parseCache) parse(path string) parseResult {
	v, _, _ := c.sf.Do(path, func() (interface{}, error) {
		// A start goroutine can reach Do after an earlier call for the
		// same path has already finished; serve it from done.
		c.mu.Lock()
		if r, ok := c.done[path]; ok {
			c.mu.Unlock()
			return r, nil
		}
		c.mu.Unlock()

		fut := c.pool.Submit(func() (parseResult, error) {
			ds, err := directive.Extract(path)
			return parseResult{directives: ds, err: err}, nil
		})
		r, _ := fut.Get()

		c.mu.Lock()
		c.done[path] = r
		c.mu.Unlock()

		return r, nil
	})
	return v.(parseResult)
}

// get returns the memoized directive list for path, joining an
// in-flight parse (started via start or a concurrent get) or starting
// one if none exists.
func (c *parseCache) get(path string) ([]directive.Directive, error) {
	c.mu.Lock()
	if r, ok := c.done[path]; ok {
		c.mu.Unlock()
		return r.directives, r.err
	}
	c.mu.Unlock()

	r := c.parse(path)
	return r.directives, r.err
}

// close destroys the underlying pool. Callers must call it once
// they're done with the cache.
func (c *parseCache) close() {
	c.pool.Close()
}
