/*
scheduler.go - Automated monthly reconciliation sweep

PURPOSE:
  Periodically reconciles the current calendar month for every profile
  so that newly due occurrences (a weekly bill crossing into "today")
  are materialized without waiting for a month view to be rendered.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each pass lists profiles and reconciles (profile, current month)
  - Reconciliation is idempotent, so sweeping is always safe; passes
    that find nothing new are no-ops
  - The engine serializes per (profile, month), so a sweep racing a
    month-view request cannot create duplicates

USAGE:
  sweeper := NewReconciliationSweeper(store, handler.Engine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: GetMonth (on-demand reconciliation)
  - budget/engine.go: ReconcileMonth
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/store/sqlite"
)

// ReconciliationSweeper reconciles the current month for all profiles
// on an interval.
type ReconciliationSweeper struct {
	Store         *sqlite.Store
	Engine        *budget.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationSweeper creates a new sweeper.
func NewReconciliationSweeper(store *sqlite.Store, engine *budget.Engine) *ReconciliationSweeper {
	return &ReconciliationSweeper{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the sweeper.
func (rs *ReconciliationSweeper) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Sweeper] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the sweeper.
func (rs *ReconciliationSweeper) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (rs *ReconciliationSweeper) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	profiles, err := rs.Store.ListProfiles(ctx)
	if err != nil {
		log.Printf("[Sweeper] Failed to list profiles: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, p := range profiles {
		txs, err := rs.Engine.ReconcileMonth(ctx, p.ID, now.Year(), now.Month())
		if err != nil {
			log.Printf("[Sweeper] Failed to reconcile profile %s for %d-%02d: %v",
				p.ID, now.Year(), now.Month(), err)
			continue
		}
		log.Printf("[Sweeper] Profile %s: %d transactions for %d-%02d",
			p.ID, len(txs), now.Year(), now.Month())
	}
}
