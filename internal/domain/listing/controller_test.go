package listing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
)

type row struct {
	ID   string
	Name string
}

type sliceSource struct {
	rows  []row
	delay func(search string) time.Duration
}

func (s *sliceSource) filter(q Query) []row {
	var out []row
	for _, r := range s.rows {
		if q.Search == "" || strings.Contains(strings.ToLower(r.Name), strings.ToLower(q.Search)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *sliceSource) List(ctx context.Context, q Query) ([]row, error) {
	if s.delay != nil {
		time.Sleep(s.delay(q.Search))
	}
	out := s.filter(q)
	if q.Offset >= len(out) {
		return nil, nil
	}
	end := q.Offset + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[q.Offset:end], nil
}

func (s *sliceSource) Count(ctx context.Context, q Query) (int, error) {
	return len(s.filter(q)), nil
}

type countingSummary struct {
	calls atomic.Int32
}

func (s *countingSummary) DueSummary(ctx context.Context, shopID string) (counterparty.DueSummary, error) {
	s.calls.Add(1)
	return counterparty.DueSummary{CustomerDue: decimal.NewFromInt(120), SupplierDue: decimal.NewFromInt(30)}, nil
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: fmt.Sprintf("id-%03d", i), Name: fmt.Sprintf("name-%03d", i)}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestController_PaginatesWithoutGapsOrDuplicates(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{rows: rows(45)}
	c := NewController[row]("shop-1", src, testLogger())

	page, err := c.Load(ctx, 1, 20, "", SortNameAsc, Replace)
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, 45, page.Total)
	assert.True(t, page.HasMore)

	page, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Items, 40)
	assert.True(t, page.HasMore)

	page, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Items, 45)
	assert.False(t, page.HasMore)

	seen := make(map[string]bool)
	for _, r := range page.Items {
		assert.False(t, seen[r.ID], "duplicate %s", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, seen, 45)

	page, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Items, 45)
}

func TestController_RepeatedLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := NewController[row]("shop-1", &sliceSource{rows: rows(30)}, testLogger())

	first, err := c.Load(ctx, 2, 10, "", SortNameAsc, Replace)
	require.NoError(t, err)
	second, err := c.Load(ctx, 2, 10, "", SortNameAsc, Replace)
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, "id-010", first.Items[0].ID)
}

func TestController_SummaryOnlyOnUnfilteredReplace(t *testing.T) {
	ctx := context.Background()
	summary := &countingSummary{}
	c := NewController[row]("shop-1", &sliceSource{rows: rows(30)}, testLogger(), WithSummary[row](summary))

	page, err := c.Load(ctx, 1, 10, "", "", Replace)
	require.NoError(t, err)
	require.NotNil(t, page.Summary)
	assert.True(t, page.Summary.CustomerDue.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, int32(1), summary.calls.Load())

	_, err = c.LoadMore(ctx)
	require.NoError(t, err)
	_, err = c.Load(ctx, 1, 10, "name-01", "", Replace)
	require.NoError(t, err)
	assert.Equal(t, int32(1), summary.calls.Load())
}

func TestController_SearchFiltersScenario(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{rows: append(rows(20), row{ID: "x-1", Name: "Karim Traders"}, row{ID: "x-2", Name: "karima"})}
	c := NewController[row]("shop-1", src, testLogger())

	page, err := c.Load(ctx, 1, 10, "KARIM", "", Replace)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.False(t, page.HasMore)
	assert.Equal(t, "KARIM", page.Search)
}

func TestController_DebouncedSearchKeepsLatest(t *testing.T) {
	ctx := context.Background()
	src := &sliceSource{
		rows: append(rows(5), row{ID: "a", Name: "alpha"}, row{ID: "b", Name: "albatross"}),
		delay: func(search string) time.Duration {
			if search == "al" {
				return 80 * time.Millisecond
			}
			return 0
		},
	}

	var mu sync.Mutex
	var delivered []Page[row]
	done := make(chan struct{}, 4)
	c := NewController[row]("shop-1", src, testLogger(),
		WithDebounce[row](20*time.Millisecond),
		WithSubscriber[row](func(p Page[row], err error) {
			mu.Lock()
			delivered = append(delivered, p)
			mu.Unlock()
			done <- struct{}{}
		}))

	c.Search(ctx, "a")
	c.Search(ctx, "al")
	time.Sleep(40 * time.Millisecond)
	c.Search(ctx, "alp")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("search result not delivered")
	}
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	assert.Equal(t, "alp", delivered[0].Search)
	require.Len(t, delivered[0].Items, 1)
	assert.Equal(t, "alpha", delivered[0].Items[0].Name)
	assert.Equal(t, "alp", c.Current().Search)
}

func TestController_CancelDropsPendingSearch(t *testing.T) {
	var calls atomic.Int32
	c := NewController[row]("shop-1", &sliceSource{rows: rows(3)}, testLogger(),
		WithDebounce[row](10*time.Millisecond),
		WithSubscriber[row](func(Page[row], error) { calls.Add(1) }))

	c.Search(context.Background(), "name")
	c.Cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestController_StaleLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	var c *Controller[row]
	src := &sliceSource{rows: rows(3), delay: func(search string) time.Duration {
		if search == "name-001" {
			c.Cancel()
		}
		return 0
	}}
	c = NewController[row]("shop-1", src, testLogger())

	_, err := c.Load(ctx, 1, 10, "", SortNameAsc, Replace)
	require.NoError(t, err)

	stale, err := c.Load(ctx, 1, 10, "name-001", SortNameAsc, Replace)
	require.NoError(t, err)
	assert.Equal(t, "", stale.Search)
	require.Len(t, stale.Items, 3)

	stale.Items[0] = row{ID: "mutated"}
	assert.Equal(t, "id-000", c.Current().Items[0].ID)
}

func TestController_RequiresShop(t *testing.T) {
	c := NewController[row]("", &sliceSource{}, testLogger())
	_, err := c.Load(context.Background(), 1, 10, "", "", Replace)
	assert.Error(t, err)
}
