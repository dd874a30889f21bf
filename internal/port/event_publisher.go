package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type EventPublisher interface {
	PublishSettlement(ctx context.Context, event domain.SettlementEvent) error
}
