package frontier

import (
	"context"

	"github.com/user/url-frontier/internal/entity"
	"github.com/user/url-frontier/internal/repository"
)

// nopStore satisfies repository.FrontierStore for tests that never reach the store.
type nopStore struct{}

var _ repository.FrontierStore = nopStore{}

func (nopStore) PushIntake(context.Context, string, string) error { return nil }
func (nopStore) PopIntake(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (nopStore) RequeueIntake(context.Context, string, string) error { return nil }
func (nopStore) IntakeLen(context.Context, string) (int64, error)    { return 0, nil }
func (nopStore) Promote(context.Context, repository.HostKeys, string, string, int64) error {
	return nil
}
func (nopStore) FetchAndPostpone(context.Context, string, int64, int64) (string, bool, error) {
	return "", false, nil
}
func (nopStore) PopAndReconcile(context.Context, repository.HostKeys, string, int64) (string, bool, error) {
	return "", false, nil
}
func (nopStore) SetCrawlDelay(context.Context, string, string, int64) error { return nil }
func (nopStore) DeleteCrawlDelay(context.Context, string, string) error     { return nil }
func (nopStore) ScanHeap(context.Context, string, uint64, int64) ([]entity.HeapEntry, uint64, error) {
	return nil, 0, nil
}
func (nopStore) RangeBackend(context.Context, string, int64, int64) ([]string, error) {
	return nil, nil
}
func (nopStore) HostCount(context.Context, string, string) (int64, bool, error) {
	return 0, false, nil
}
func (nopStore) Ping(context.Context) error { return nil }
func (nopStore) Close() error               { return nil }
