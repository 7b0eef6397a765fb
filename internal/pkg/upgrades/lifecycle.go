package upgrades

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
)

// sweepBatchSize bounds one sweep run; remaining due records are picked up
// on the next scheduled tick.
const sweepBatchSize = 50

// Activate puts a signal into dynamic mode for the upgrade's paid window.
// Idempotent: re-applying the same upgrade refreshes the same fields.
func Activate(signal *models.Signal, upgrade *models.SignalUpgrade, now time.Time) {
	signal.IsDynamic = true
	userID := upgrade.UserID
	signal.DynamicUserID = &userID
	expiresAt := upgrade.ExpiresAt
	signal.DynamicExpiresAt = &expiresAt
	signal.LastPriceUpdate = &now
}

// Deactivate clears a signal's dynamic mode. Returns false when the signal
// was already inactive, in which case nothing changed and nothing needs
// saving; double-processing under retry is therefore harmless.
func Deactivate(signal *models.Signal) bool {
	if !signal.IsDynamic {
		return false
	}
	signal.IsDynamic = false
	signal.DynamicUserID = nil
	signal.DynamicExpiresAt = nil
	return true
}

// ExpireDueUpgrades deactivates the signals of confirmed upgrades whose
// paid window ended before now. The upgrade rows themselves keep their
// confirmed status as the historical payment record; expiry is a
// signal-side effect only. Safe to run concurrently with itself and with
// live transitions. Returns the number of signals deactivated.
func (s *Service) ExpireDueUpgrades(now time.Time) (int, error) {
	due, err := s.repo.ListDueConfirmedUpgrades(now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		upgrade := &due[i]
		deactivated, err := s.expireOne(upgrade, now)
		if err != nil {
			log.Errorf("[UpgradeSweep] Failed to expire upgrade %s: %v", upgrade.UUID, err)
			continue
		}
		if deactivated {
			expired++
		}
	}
	return expired, nil
}

// expireOne reports whether it deactivated the upgrade's signal; already
// inactive or refreshed signals are left alone.
func (s *Service) expireOne(upgrade *models.SignalUpgrade, now time.Time) (bool, error) {
	var signal *models.Signal

	err := s.repo.InTransaction(func(tx Repository) error {
		var err error
		signal, err = tx.GetSignalByID(upgrade.SignalID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				signal = nil
				return nil
			}
			return err
		}
		if !signal.IsDynamic {
			signal = nil
			return nil
		}
		// A later upgrade may have refreshed the dynamic window; only
		// clear it once the signal's own dynamic expiry has passed.
		if signal.DynamicExpiresAt != nil && signal.DynamicExpiresAt.After(now) {
			signal = nil
			return nil
		}

		Deactivate(signal)
		if err := tx.SaveSignal(signal); err != nil {
			return err
		}
		return tx.CreateSignalUpdate(expiryUpdate(signal, upgrade, now))
	})
	if err != nil {
		return false, err
	}
	if signal == nil {
		// Already inactive or gone; nothing to notify.
		return false, nil
	}

	actionType, actionData := notify.ActionViewSignal(signal.UUID)
	s.notifier.Send(upgrade.UserID, notify.Message{
		Type:       models.NOTIFICATION_TYPE_SYSTEM_ALERT,
		Title:      "Dynamic Signal Expired",
		Body:       fmt.Sprintf("Your dynamic signal for %s has expired. Upgrade again for continued real-time updates.", signal.Symbol),
		Priority:   models.NOTIFICATION_PRIORITY_MEDIUM,
		ActionType: actionType,
		ActionData: actionData,
	})

	log.Infof("[UpgradeSweep] Dynamic signal expired: %s (upgrade %s)", signal.Symbol, upgrade.UUID)
	return true, nil
}

// ExpireDueSignals marks active signals with a past plain expiry as
// expired. Independent of the dynamic-mode bookkeeping. Returns the number
// of signals expired.
func (s *Service) ExpireDueSignals(now time.Time) (int, error) {
	due, err := s.repo.ListDueActiveSignals(now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		signal := &due[i]
		if err := signal.SetStatus(models.SIGNAL_STATUS_EXPIRED, now); err != nil {
			log.Errorf("[SignalSweep] Skipping signal %s: %v", signal.UUID, err)
			continue
		}
		if err := s.repo.SaveSignal(signal); err != nil {
			log.Errorf("[SignalSweep] Failed to expire signal %s: %v", signal.UUID, err)
			continue
		}
		log.Infof("[SignalSweep] Signal expired: %s (%s)", signal.Symbol, signal.UUID)
		expired++
	}
	return expired, nil
}

func activationUpdate(signal *models.Signal, upgrade *models.SignalUpgrade, now time.Time) *models.SignalUpdate {
	data, _ := json.Marshal(map[string]any{
		"activation_time": now.UTC().Format(time.RFC3339),
		"duration_hours":  upgrade.DurationHours,
		"expires_at":      upgrade.ExpiresAt.UTC().Format(time.RFC3339),
	})
	return &models.SignalUpdate{
		SignalID:   signal.ID,
		UpgradeID:  upgrade.ID,
		UserID:     upgrade.UserID,
		UpdateType: models.UPDATE_TYPE_ACTIVATION,
		Title:      "Dynamic Signal Activated",
		Content:    fmt.Sprintf("Your %s signal is now live with real-time updates. You'll receive alerts for price movements and analysis updates.", signal.Symbol),
		Priority:   models.NOTIFICATION_PRIORITY_MEDIUM,
		Data:       string(data),
	}
}

func expiryUpdate(signal *models.Signal, upgrade *models.SignalUpgrade, now time.Time) *models.SignalUpdate {
	data, _ := json.Marshal(map[string]any{
		"expiration_time": now.UTC().Format(time.RFC3339),
		"final_price":     signal.CurrentPrice,
	})
	return &models.SignalUpdate{
		SignalID:   signal.ID,
		UpgradeID:  upgrade.ID,
		UserID:     upgrade.UserID,
		UpdateType: models.UPDATE_TYPE_EXPIRY,
		Title:      "Dynamic Period Ended",
		Content:    fmt.Sprintf("Your %s dynamic signal has expired. The signal continues as a standard signal; upgrade again for real-time updates.", signal.Symbol),
		Priority:   models.NOTIFICATION_PRIORITY_MEDIUM,
		Data:       string(data),
	}
}
