package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/internal/pkg/env"
	"github.com/pulseapp/PulseSignals/internal/pkg/upgrades"
)

// Manager manages the global job queue and background sweeps
type Manager struct {
	queue              *Queue
	upgradeSvc         *upgrades.Service
	upgradeSweepTicker *time.Ticker
	signalSweepTicker  *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "3")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// AttachUpgradeService hands the manager the service whose sweeps it drives.
// Must be called before Start; without it the sweep tickers stay off.
func (m *Manager) AttachUpgradeService(svc *upgrades.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgradeSvc = svc
}

// Start starts the job queue and background sweeps
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background sweeps")

	// Start the job queue
	m.queue.Start()

	if m.upgradeSvc != nil {
		upgradeInterval := intervalFromEnv("UPGRADE_SWEEP_INTERVAL_MINUTES", 5)
		signalInterval := intervalFromEnv("SIGNAL_SWEEP_INTERVAL_MINUTES", 15)

		m.upgradeSweepTicker = time.NewTicker(upgradeInterval)
		m.wg.Add(1)
		go m.upgradeSweepWorker(upgradeInterval)

		m.signalSweepTicker = time.NewTicker(signalInterval)
		m.wg.Add(1)
		go m.signalSweepWorker(signalInterval)
	} else {
		log.Warn("[JobQueue Manager] No upgrade service attached; sweeps disabled")
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background sweeps
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background sweeps...")

	if m.upgradeSweepTicker != nil {
		m.upgradeSweepTicker.Stop()
	}
	if m.signalSweepTicker != nil {
		m.signalSweepTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// upgradeSweepWorker periodically deactivates dynamic signals whose paid
// window ran out.
func (m *Manager) upgradeSweepWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started upgrade sweep worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Upgrade sweep worker stopping")
			return
		case <-m.upgradeSweepTicker.C:
			count, err := m.upgradeSvc.ExpireDueUpgrades(time.Now())
			if err != nil {
				log.Errorf("[JobQueue Manager] Upgrade sweep error: %v", err)
				continue
			}
			if count > 0 {
				log.Infof("[JobQueue Manager] Upgrade sweep deactivated %d dynamic signal(s)", count)
			}
		}
	}
}

// signalSweepWorker periodically expires active signals past their plain
// expiry date.
func (m *Manager) signalSweepWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started signal sweep worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Signal sweep worker stopping")
			return
		case <-m.signalSweepTicker.C:
			count, err := m.upgradeSvc.ExpireDueSignals(time.Now())
			if err != nil {
				log.Errorf("[JobQueue Manager] Signal sweep error: %v", err)
				continue
			}
			if count > 0 {
				log.Infof("[JobQueue Manager] Signal sweep expired %d signal(s)", count)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func intervalFromEnv(key string, defMinutes int) time.Duration {
	if v, err := strconv.Atoi(env.GetEnv(key, strconv.Itoa(defMinutes))); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return time.Duration(defMinutes) * time.Minute
}
