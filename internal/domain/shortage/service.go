package shortage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hirosato/shop-ledger/backend/internal/domain/counterparty"
	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
	"github.com/hirosato/shop-ledger/backend/internal/domain/shop"
)

// Service provides shortage-note business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new shortage service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add records an open shortage note
func (s *Service) Add(ctx context.Context, sc *shop.Context, title string) (*Note, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title is required")
	}
	now := s.now()
	n := &Note{
		ID:        ulid.Make().String(),
		ShopID:    sc.ShopID,
		Title:     title,
		Status:    Open,
		SyncState: counterparty.SyncPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "shortage noted", "shopID", sc.ShopID, "noteID", n.ID)
	return n, nil
}

// SetStatus marks a note open or done
func (s *Service) SetStatus(ctx context.Context, shopID, id string, status Status) error {
	if shopID == "" || id == "" {
		return errors.NewValidationError("shop ID and note ID are required")
	}
	if _, ok := ParseStatus(string(status)); !ok {
		return errors.NewValidationError(fmt.Sprintf("invalid status %q", status))
	}
	return s.repo.UpdateStatus(ctx, shopID, id, status, s.now())
}
