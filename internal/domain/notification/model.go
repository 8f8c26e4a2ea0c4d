package notification

import (
	"context"
	"time"
)

// ChannelSelection is the per-shop choice of outbound messaging channel
type ChannelSelection struct {
	ShopID            string    `json:"shopId"`
	SelectedChannelID string    `json:"selectedChannelId"`
	DisplayName       string    `json:"displayName"`
	IsNoSendOption    bool      `json:"isNoSendOption"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Sends reports whether the selection asks for messages to be delivered
func (s *ChannelSelection) Sends() bool {
	return s != nil && !s.IsNoSendOption && s.SelectedChannelID != ""
}

// Result summarises a group send
type Result struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
	SkippedCount int `json:"skippedCount"`
}

//go:generate mockgen -destination=mocks/mock_notification.go -package=mocks -source=model.go Channel,SelectionRepository

// Channel delivers a text message to a phone number
type Channel interface {
	// Available returns a permission error when the channel cannot be used at all
	Available(ctx context.Context) error
	Send(ctx context.Context, phone, message, channelID string) error
}

// SelectionRepository stores the per-shop channel selection.
// Get returns (nil, nil) when the shop has never chosen a channel.
type SelectionRepository interface {
	GetSelection(ctx context.Context, shopID string) (*ChannelSelection, error)
	SaveSelection(ctx context.Context, selection *ChannelSelection) error
}
