package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hirosato/shop-ledger/backend/internal/app"
	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/listing"
	"github.com/hirosato/shop-ledger/backend/internal/domain/mcp"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

const CounterpartiesURI = "shopledger://counterparties"

// CounterpartiesResource exposes the first page of customers and suppliers with the due totals
type CounterpartiesResource struct {
	app *app.App
}

func NewCounterpartiesResource(a *app.App) *CounterpartiesResource {
	return &CounterpartiesResource{app: a}
}

func (r *CounterpartiesResource) GetURI() string  { return CounterpartiesURI }
func (r *CounterpartiesResource) GetName() string { return "Counterparties" }
func (r *CounterpartiesResource) GetDescription() string {
	return "Most recently updated customers and suppliers of the shop with their balances"
}
func (r *CounterpartiesResource) GetMimeType() string { return "application/json" }

type counterpartiesView struct {
	ShopID    string                                  `json:"shopId"`
	Customers listing.Page[counterparty.Counterparty] `json:"customers"`
	Suppliers listing.Page[counterparty.Counterparty] `json:"suppliers"`
}

func (r *CounterpartiesResource) Read(ctx context.Context) (*mcp.ReadResourceResult, error) {
	sc, ok := shop.FromContext(ctx)
	if !ok {
		return nil, errors.NewValidationError("shop context is missing")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	view := counterpartiesView{ShopID: sc.ShopID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := r.app.CounterpartyController(sc.ShopID, counterparty.Customer).
			Load(gctx, 1, 0, "", listing.SortUpdatedDesc, listing.Replace)
		view.Customers = page
		return err
	})
	g.Go(func() error {
		page, err := r.app.CounterpartyController(sc.ShopID, counterparty.Supplier).
			Load(gctx, 1, 0, "", listing.SortUpdatedDesc, listing.Replace)
		view.Suppliers = page
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode counterparties: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      CounterpartiesURI,
				MimeType: r.GetMimeType(),
				Text:     string(data),
			},
		},
	}, nil
}
