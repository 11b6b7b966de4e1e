package classroom

import "context"

// PageFunc fetches one page of a listing call and hands its items to the
// caller, returning the provider's next page token.
type PageFunc func(ctx context.Context, pageToken string) (nextPageToken string, err error)

// ForEachPage drives a paginated listing call: it invokes fetch with an empty
// page token, then with each returned token, until the token comes back
// empty. The full result set is traversed exactly once, in provider order.
// A cancelled context stops before the next fetch; the in-flight page
// finishes (graceful stop, not abort).
func ForEachPage(ctx context.Context, fetch PageFunc) error {
	pageToken := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := fetch(ctx, pageToken)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		pageToken = next
	}
}
