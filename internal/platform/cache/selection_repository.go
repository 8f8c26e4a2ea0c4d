package cache

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hirosato/shop-ledger/backend/internal/domain/notification"
)

// DefaultTTL is how long a selection that does not send is served from memory
const DefaultTTL = 30 * time.Second

type cachedSelection struct {
	selection *notification.ChannelSelection
}

// SelectionRepository is a read-through cache in front of another SelectionRepository.
// Only selections that do not send are cached; a sending selection is read from next
// on every call so an opt-out written by another process takes effect on the next send.
type SelectionRepository struct {
	next   notification.SelectionRepository
	cache  *gocache.Cache
	logger *slog.Logger
}

// NewSelectionRepository wraps next with a cache whose entries live for ttl
func NewSelectionRepository(next notification.SelectionRepository, ttl time.Duration, logger *slog.Logger) *SelectionRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SelectionRepository{
		next:   next,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// GetSelection serves a remembered absence or opt-out from memory, otherwise reads through
func (r *SelectionRepository) GetSelection(ctx context.Context, shopID string) (*notification.ChannelSelection, error) {
	if v, ok := r.cache.Get(shopID); ok {
		return copySelection(v.(cachedSelection).selection), nil
	}
	sel, err := r.next.GetSelection(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !sel.Sends() {
		r.cache.SetDefault(shopID, cachedSelection{selection: copySelection(sel)})
		r.logger.DebugContext(ctx, "channel selection cached", "shopID", shopID, "found", sel != nil)
	}
	return sel, nil
}

// SaveSelection writes through and drops the cached entry
func (r *SelectionRepository) SaveSelection(ctx context.Context, sel *notification.ChannelSelection) error {
	r.cache.Delete(sel.ShopID)
	if err := r.next.SaveSelection(ctx, sel); err != nil {
		return err
	}
	r.cache.Delete(sel.ShopID)
	return nil
}

func copySelection(sel *notification.ChannelSelection) *notification.ChannelSelection {
	if sel == nil {
		return nil
	}
	c := *sel
	return &c
}

var _ notification.SelectionRepository = (*SelectionRepository)(nil)
