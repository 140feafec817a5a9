package market

import (
	"context"
	"strings"
)

// IDSeparator joins identifiers for a batched FetchByIDs call.
const IDSeparator = ","

// Fetcher is the remote price API as the screens see it. Retries and timeouts
// are the implementation's concern.
type Fetcher interface {
	// FetchByIDs returns the listing rows for ids joined by IDSeparator.
	// Unknown ids are silently absent from the result.
	FetchByIDs(ctx context.Context, ids string) ([]Asset, error)

	// FetchDetail returns the detail record for one asset.
	FetchDetail(ctx context.Context, id string) (*AssetDetail, error)

	// FetchMarkets returns one page of assets ordered by market cap.
	FetchMarkets(ctx context.Context, page, perPage int) ([]Asset, error)
}

// JoinIDs joins ids with IDSeparator.
func JoinIDs(ids []string) string {
	return strings.Join(ids, IDSeparator)
}

// SplitIDs is the inverse of JoinIDs. Blank entries are dropped.
func SplitIDs(joined string) []string {
	var ids []string
	for _, id := range strings.Split(joined, IDSeparator) {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
