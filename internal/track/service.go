package track

import "context"

// Service defines store account and record operations. Every record
// operation takes the verified owning-store id; implementations must never
// return or mutate a record owned by a different store, and must report
// cross-store access as ErrNotFound rather than confirming existence.
type Service interface {
	RegisterStore(ctx context.Context, params RegisterParams) (Store, error)
	AuthenticateStore(ctx context.Context, username, password string) (Store, error)
	GetStore(ctx context.Context, id string) (Store, error)

	CreateTemperature(ctx context.Context, storeID string, in TemperatureInput) (Temperature, error)
	ListTemperatures(ctx context.Context, storeID string, filter TemperatureFilter) ([]Temperature, error)

	CreateTip(ctx context.Context, storeID string, in TipInput) (Tip, error)
	ListTips(ctx context.Context, storeID string, filter RangeFilter) ([]Tip, error)

	CreateOutOfStock(ctx context.Context, storeID string, in OutOfStockInput) (OutOfStockItem, error)
	ListOutOfStock(ctx context.Context, storeID string, filter RangeFilter) ([]OutOfStockItem, error)
	RestockItem(ctx context.Context, storeID, itemID string) (OutOfStockItem, error)
	DeleteOutOfStock(ctx context.Context, storeID, itemID string) error
}
