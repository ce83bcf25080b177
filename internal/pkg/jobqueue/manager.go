package jobqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/billing"
	"github.com/flowdeskhq/flowdesk/internal/pkg/calendar"
	"github.com/flowdeskhq/flowdesk/internal/pkg/database"
	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

// Manager runs the recurring background tasks: the billing sweep that
// finalizes expired subscriptions and the calendar feed refresh.
type Manager struct {
	billingTicker *time.Ticker
	feedTicker    *time.Ticker
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global background task manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// Start starts the background task tickers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting background tasks")

	m.billingTicker = time.NewTicker(intervalFromEnv("BILLING_SWEEP_INTERVAL_MINUTES", 60))
	m.wg.Add(1)
	go m.billingSweepWorker()

	m.feedTicker = time.NewTicker(intervalFromEnv("CALENDAR_FEED_REFRESH_MINUTES", 15))
	m.wg.Add(1)
	go m.feedRefreshWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the background tasks and waits for workers to drain
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping background tasks...")

	if m.billingTicker != nil {
		m.billingTicker.Stop()
	}
	if m.feedTicker != nil {
		m.feedTicker.Stop()
	}

	close(m.stopCh)
	m.wg.Wait()
	m.running = false

	log.Info("[JobQueue Manager] Stopped")
}

func (m *Manager) billingSweepWorker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.billingTicker.C:
			m.runBillingSweep()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) runBillingSweep() {
	svc := billing.NewServiceFromDB(database.GetDB())
	count, err := svc.FinalizeExpired(context.Background(), time.Now())
	if err != nil {
		log.Errorf("[JobQueue Manager] billing sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Infof("[JobQueue Manager] billing sweep finalized %d expired subscriptions", count)
	}
}

func (m *Manager) feedRefreshWorker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.feedTicker.C:
			m.runFeedRefresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) runFeedRefresh() {
	repo := repository.GetGlobalFactory().GetCalendarRepository()

	feeds, err := repo.ListAllFeeds()
	if err != nil {
		log.Errorf("[JobQueue Manager] listing calendar feeds failed: %v", err)
		return
	}

	for _, feed := range feeds {
		f := feed
		count, err := calendar.RefreshFeed(context.Background(), repo, &f)
		now := time.Now()
		f.LastSyncedAt = &now
		if err != nil {
			f.LastError = err.Error()
			log.Warnf("[JobQueue Manager] refreshing feed %d failed: %v", f.ID, err)
		} else {
			f.LastError = ""
			log.Debugf("[JobQueue Manager] refreshed feed %d, %d events", f.ID, count)
		}
		if err := repo.SaveFeed(&f); err != nil {
			log.Errorf("[JobQueue Manager] saving feed %d state failed: %v", f.ID, err)
		}
	}
}

func intervalFromEnv(key string, defMinutes int) time.Duration {
	if v := env.GetEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return time.Duration(defMinutes) * time.Minute
}
