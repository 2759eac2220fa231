package services

import (
	"context"
	"time"

	applog "storefront/internal/log"
	"storefront/internal/repos"
)

// DealSweeper restores original prices once deals expire.
type DealSweeper struct {
	Prods    *repos.ProductRepo
	Interval time.Duration
	Now      func() time.Time
}

func NewDealSweeper(prods *repos.ProductRepo, interval time.Duration) *DealSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &DealSweeper{Prods: prods, Interval: interval, Now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (d *DealSweeper) Run(ctx context.Context) {
	d.SweepOnce()
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.SweepOnce()
		case <-ctx.Done():
			return
		}
	}
}

func (d *DealSweeper) SweepOnce() int64 {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	n, err := d.Prods.ClearExpiredDeals(now().UnixMilli())
	if err != nil {
		applog.Event("deals.sweep.fail", err, nil)
		return 0
	}
	if n > 0 {
		applog.Event("deals.sweep", nil, map[string]any{"cleared": n})
	}
	return n
}
