package statements

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var buildGroup singleflight.Group

// singleflightBuild collapses concurrent snapshot builds that share a key
// so one scan of the journal serves every waiter.
func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := buildGroup.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
