package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Retries           int           `validate:"min=1"`
	RetryDelay        time.Duration `validate:"min=0"`
	LowStockThreshold float64       `validate:"gte=0,lte=1"`
	Concurrency       int           `validate:"min=1"`
	ReconcileAll      bool
	AutoCorrect       bool
}

// ItemSource is the durable side. shared.ItemRepository satisfies it.
type ItemSource interface {
	ListActive(ctx context.Context, now time.Time) ([]*seckill.Item, error)
	GetStock(ctx context.Context, itemID uuid.UUID) (shared.ItemStock, error)
}

// PairReader is the cache side.
type PairReader interface {
	ReadPair(ctx context.Context, sale seckill.SaleKey) (shared.StockPair, error)
	SetAvailable(ctx context.Context, sale seckill.SaleKey, n int64) error
}

type AlertSink interface {
	Alert(ctx context.Context, d Drift) error
}

// Drift is a mismatch that survived every retry.
type Drift struct {
	ItemID    uuid.UUID
	Sale      seckill.SaleKey
	Durable   int64
	Available int64
	Reserved  int64
	Corrected bool
}

// Delta is positive when the cache holds more units than the store.
func (d Drift) Delta() int64 {
	return d.Available + d.Reserved - d.Durable
}

type Report struct {
	Checked    int
	Skipped    int
	Consistent int
	Failed     int
	Drifts     []Drift
}

type Runner interface {
	RunOnce(ctx context.Context) (Report, error)
}

var _ Runner = (*Reconciler)(nil)

type Reconciler struct {
	cfg    Config
	items  ItemSource
	pairs  PairReader
	alerts AlertSink
	clock  clock.Clock
	logger *slog.Logger
}

func NewReconciler(cfg Config, items ItemSource, pairs PairReader, alerts AlertSink, clk clock.Clock, logger *slog.Logger) (*Reconciler, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errs.Wrap(err, "invalid reconcile config")
	}
	return &Reconciler{
		cfg:    cfg,
		items:  items,
		pairs:  pairs,
		alerts: alerts,
		clock:  clk,
		logger: logger,
	}, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeConsistent
	outcomeDrift
	outcomeFailed
)

// RunOnce checks every active item once. Per-item failures are counted and
// logged; only a failure to list items or a cancelled context is returned.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	items, err := r.items.ListActive(ctx, r.clock.Now())
	if err != nil {
		return Report{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, item := range items {
		g.Go(func() error {
			res, drift, err := r.check(gctx, item)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn("reconcile check failed", "item_id", item.ID().String(), "error", err.Error())
			}

			mu.Lock()
			defer mu.Unlock()
			switch res {
			case outcomeSkipped:
				report.Skipped++
			case outcomeConsistent:
				report.Checked++
				report.Consistent++
			case outcomeDrift:
				report.Checked++
				report.Drifts = append(report.Drifts, drift)
			case outcomeFailed:
				report.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) check(ctx context.Context, item *seckill.Item) (outcome, Drift, error) {
	sale := item.SaleKey()
	logger := r.logger.With("item_id", item.ID().String(), "window_start", sale.WindowStart)

	var last Drift
	for attempt := 0; attempt <= r.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return outcomeFailed, Drift{}, ctx.Err()
			case <-time.After(r.cfg.RetryDelay):
			}
		}

		pair, err := r.pairs.ReadPair(ctx, sale)
		if err != nil {
			return outcomeFailed, Drift{}, err
		}
		if !pair.Present {
			return outcomeSkipped, Drift{}, nil
		}
		if attempt == 0 && !r.cfg.ReconcileAll && !item.LowStock(pair.Available, r.cfg.LowStockThreshold) {
			return outcomeSkipped, Drift{}, nil
		}

		stock, err := r.items.GetStock(ctx, item.ID())
		if err != nil {
			return outcomeFailed, Drift{}, err
		}
		if pair.Available+pair.Reserved == stock.StockCount {
			if attempt > 0 {
				logger.Info("transient stock mismatch resolved", "attempts", attempt+1)
			}
			return outcomeConsistent, Drift{}, nil
		}

		last = Drift{
			ItemID:    item.ID(),
			Sale:      sale,
			Durable:   stock.StockCount,
			Available: pair.Available,
			Reserved:  pair.Reserved,
		}
	}

	if r.cfg.AutoCorrect {
		target := max(last.Durable-last.Reserved, 0)
		if err := r.pairs.SetAvailable(ctx, sale, target); err != nil {
			logger.Error("failed to correct available stock", "error", err.Error())
		} else {
			last.Corrected = true
			logger.Warn("available stock corrected", "from", last.Available, "to", target)
		}
	}

	logger.Error("stock drift persisted after retries",
		"error", errs.ErrReconciliationDrift.Error(),
		"durable", last.Durable,
		"available", last.Available,
		"reserved", last.Reserved,
		"delta", last.Delta(),
	)
	if err := r.alerts.Alert(ctx, last); err != nil {
		logger.Error("failed to raise drift alert", "error", err.Error())
	}
	return outcomeDrift, last, nil
}
