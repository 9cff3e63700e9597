package service

import "context"

// ScrollController turns sentinel visibility (or a manual "load more") into at most one load at a time.
type ScrollController struct {
	pager   *ScanPager
	scanCap int
}

// NewScrollController constructs a ScrollController using the pager's scroll scan cap.
func NewScrollController(pager *ScanPager) *ScrollController {
	return &ScrollController{pager: pager, scanCap: pager.Config().ScrollScan}
}

// OnSentinelVisible starts the next load unless one is in flight or the remote source is exhausted.
func (c *ScrollController) OnSentinelVisible(ctx context.Context, s *PagerSession) LoadResult {
	if !s.CanLoadMore() {
		return LoadResult{Token: s.guard.Current(), Outcome: OutcomeSkipped}
	}
	return c.pager.continueLoad(ctx, s, c.scanCap)
}
