package interfaces

import "context"

// PriceSource looks up the current market price of a ticker.
type PriceSource interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
}
