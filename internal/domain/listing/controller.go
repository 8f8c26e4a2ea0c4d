package listing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

// DefaultDebounce is the quiet period before a search term is loaded
const DefaultDebounce = 300 * time.Millisecond

// Controller pages through one source for one shop and holds the accumulated items
type Controller[T any] struct {
	shopID   string
	source   Source[T]
	summary  SummarySource
	logger   *slog.Logger
	debounce time.Duration
	pageSize int

	mu       sync.Mutex
	state    Page[T]
	token    uint64
	timer    *time.Timer
	onResult func(Page[T], error)
}

// ControllerOption configures a Controller
type ControllerOption[T any] func(*Controller[T])

// WithSummary attaches a due-totals source
func WithSummary[T any](s SummarySource) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.summary = s
	}
}

// WithDebounce overrides the search quiet period
func WithDebounce[T any](d time.Duration) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.debounce = d
	}
}

// WithPageSize overrides the default page size
func WithPageSize[T any](size int) ControllerOption[T] {
	return func(c *Controller[T]) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithSubscriber sets the callback that receives debounced search results
func WithSubscriber[T any](fn func(Page[T], error)) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.onResult = fn
	}
}

// NewController creates a listing controller for shopID
func NewController[T any](shopID string, source Source[T], logger *slog.Logger, opts ...ControllerOption[T]) *Controller[T] {
	c := &Controller[T]{
		shopID:   shopID,
		source:   source,
		logger:   logger,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		state:    Page[T]{Sort: SortUpdatedDesc},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches one page and either replaces or extends the held items
func (c *Controller[T]) Load(ctx context.Context, page, size int, search, sort string, mode Mode) (Page[T], error) {
	c.mu.Lock()
	c.token++
	token := c.token
	c.mu.Unlock()
	return c.load(ctx, token, page, size, search, sort, mode)
}

func (c *Controller[T]) load(ctx context.Context, token uint64, page, size int, search, sort string, mode Mode) (Page[T], error) {
	if c.shopID == "" {
		return Page[T]{}, errors.NewValidationError("shop ID is required")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = c.pageSize
	}
	if sort == "" {
		sort = SortUpdatedDesc
	}
	search = strings.TrimSpace(search)

	q := Query{
		ShopID: c.shopID,
		Offset: Offset(page, size),
		Limit:  size,
		Search: search,
		Sort:   sort,
	}

	var (
		items   []T
		total   int
		summary *counterparty.DueSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.source.List(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = c.source.Count(gctx, q)
		return err
	})
	if c.summary != nil && mode == Replace && search == "" {
		g.Go(func() error {
			s, err := c.summary.DueSummary(gctx, c.shopID)
			if err != nil {
				return err
			}
			summary = &s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.ErrorContext(ctx, "listing load failed",
			"shopID", c.shopID,
			"page", page,
			"search", search,
			"error", err)
		return c.Current(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return c.currentLocked(), nil
	}

	next := Page[T]{
		Page:    page,
		Size:    size,
		Total:   total,
		HasMore: q.Offset+size < total,
		Search:  search,
		Sort:    sort,
		Summary: c.state.Summary,
	}
	if mode == Append {
		next.Items = append(append([]T{}, c.state.Items...), items...)
	} else {
		next.Items = items
	}
	if summary != nil {
		next.Summary = summary
	}
	if next.Items == nil {
		next.Items = []T{}
	}
	c.state = next
	return next, nil
}

// Refresh reloads the first page with the current search and sort
func (c *Controller[T]) Refresh(ctx context.Context) (Page[T], error) {
	cur := c.Current()
	return c.Load(ctx, 1, cur.Size, cur.Search, cur.Sort, Replace)
}

// LoadMore appends the next page when one exists
func (c *Controller[T]) LoadMore(ctx context.Context) (Page[T], error) {
	cur := c.Current()
	if cur.Page > 0 && !cur.HasMore {
		return cur, nil
	}
	return c.Load(ctx, cur.Page+1, cur.Size, cur.Search, cur.Sort, Append)
}

// Search schedules a first-page load for term after the debounce period.
// Only the most recent call delivers a result to the subscriber.
func (c *Controller[T]) Search(ctx context.Context, term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	token := c.token
	sort := c.state.Sort
	size := c.state.Size
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		page, err := c.load(ctx, token, 1, size, term, sort, Replace)
		c.mu.Lock()
		stale := token != c.token
		fn := c.onResult
		c.mu.Unlock()
		if stale {
			c.logger.DebugContext(ctx, "stale search result discarded", "shopID", c.shopID, "search", term)
			return
		}
		if fn != nil {
			fn(page, err)
		}
	})
}

// Cancel stops any pending search and invalidates in-flight results
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Current returns a copy of the held state
func (c *Controller[T]) Current() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller[T]) currentLocked() Page[T] {
	cp := c.state
	cp.Items = append([]T{}, c.state.Items...)
	return cp
}
