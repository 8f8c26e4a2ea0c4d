package notification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hirosato/shop-ledger/backend/internal/domain/errors"
)

// SelectionService changes a shop's channel selection
type SelectionService struct {
	repo   SelectionRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSelectionService creates a new selection service
func NewSelectionService(repo SelectionRepository, logger *slog.Logger) *SelectionService {
	return &SelectionService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the shop's selection, or nil when none was made
func (s *SelectionService) Get(ctx context.Context, shopID string) (*ChannelSelection, error) {
	if shopID == "" {
		return nil, errors.NewValidationError("shop ID is required")
	}
	return s.repo.GetSelection(ctx, shopID)
}

// Select makes channelID the shop's outbound channel
func (s *SelectionService) Select(ctx context.Context, shopID, channelID, displayName string) (*ChannelSelection, error) {
	if shopID == "" {
		return nil, errors.NewValidationError("shop ID is required")
	}
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, errors.NewValidationError("channel ID is required")
	}
	if displayName == "" {
		displayName = channelID
	}
	sel := &ChannelSelection{
		ShopID:            shopID,
		SelectedChannelID: channelID,
		DisplayName:       displayName,
		UpdatedAt:         s.now(),
	}
	if err := s.repo.SaveSelection(ctx, sel); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "channel selected", "shopID", shopID, "channel", channelID)
	return sel, nil
}

// OptOut records that the shop does not want messages sent
func (s *SelectionService) OptOut(ctx context.Context, shopID string) (*ChannelSelection, error) {
	if shopID == "" {
		return nil, errors.NewValidationError("shop ID is required")
	}
	sel := &ChannelSelection{
		ShopID:         shopID,
		DisplayName:    "Do not send",
		IsNoSendOption: true,
		UpdatedAt:      s.now(),
	}
	if err := s.repo.SaveSelection(ctx, sel); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "notifications disabled", "shopID", shopID)
	return sel, nil
}
