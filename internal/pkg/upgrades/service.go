package upgrades

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
)

// Service owns the upgrade state machine and the dynamic signal lifecycle.
// Every successful transition hands an optional notification to the
// emitter; notification failures never surface here.
type Service struct {
	repo     Repository
	notifier notify.Emitter
}

// NewService creates an upgrade service from an injected repository and
// notification emitter.
func NewService(repo Repository, notifier notify.Emitter) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// CreateUpgradeInput carries the parameters of one paid upgrade request.
// The payment reference arrives already decided by the external payment
// processor; this service never charges anything itself.
type CreateUpgradeInput struct {
	SignalUUID    string
	UserID        uint
	PaymentRef    string
	Amount        decimal.Decimal
	Currency      string
	DurationHours int
}

// CreateUpgrade validates and persists a new pending upgrade. The payment
// reference is the idempotency key: re-submitting the same reference for
// the same signal and user returns the existing record unchanged, while a
// reference reuse across a different signal or user is a conflict.
func (s *Service) CreateUpgrade(in CreateUpgradeInput) (*models.SignalUpgrade, error) {
	in.PaymentRef = strings.TrimSpace(in.PaymentRef)
	if in.SignalUUID == "" || in.UserID == 0 || in.PaymentRef == "" {
		return nil, apperr.Validation("signal, user and payment reference are required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}
	if in.DurationHours == 0 {
		in.DurationHours = models.UPGRADE_DEFAULT_DURATION_HOURS
	}
	if in.DurationHours < models.UPGRADE_MIN_DURATION_HOURS || in.DurationHours > models.UPGRADE_MAX_DURATION_HOURS {
		return nil, apperr.Validation("duration must be between %d and %d hours",
			models.UPGRADE_MIN_DURATION_HOURS, models.UPGRADE_MAX_DURATION_HOURS)
	}

	signal, err := s.repo.GetSignalByUUID(in.SignalUUID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetUpgradeByPaymentRef(in.PaymentRef); err == nil {
		if existing.SignalID != signal.ID || existing.UserID != in.UserID {
			return nil, apperr.Conflict("payment reference %s already used for another upgrade", in.PaymentRef)
		}
		return existing, nil
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	upgrade := models.NewSignalUpgrade(signal.ID, in.UserID, in.PaymentRef, in.Amount, in.DurationHours, time.Now())
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		upgrade.Currency = c
	}

	if err := s.repo.CreateUpgrade(upgrade); err != nil {
		// Lost a creation race on the unique payment reference; fall back
		// to the stored record.
		if apperr.IsKind(err, apperr.KindConflict) {
			if existing, lookupErr := s.repo.GetUpgradeByPaymentRef(in.PaymentRef); lookupErr == nil &&
				existing.SignalID == signal.ID && existing.UserID == in.UserID {
				return existing, nil
			}
		}
		return nil, err
	}

	actionType, actionData := notify.ActionViewSignal(signal.UUID)
	s.notifier.Send(upgrade.UserID, notify.Message{
		Type:       models.NOTIFICATION_TYPE_PAYMENT_SUCCESS,
		Title:      "Signal Upgrade Processing",
		Body:       "Your dynamic signal upgrade payment is being processed. You will receive confirmation shortly.",
		Priority:   models.NOTIFICATION_PRIORITY_MEDIUM,
		ActionType: actionType,
		ActionData: actionData,
	})

	return upgrade, nil
}

// GetUpgrade loads one upgrade by its UUID.
func (s *Service) GetUpgrade(upgradeUUID string) (*models.SignalUpgrade, error) {
	return s.repo.GetUpgradeByUUID(upgradeUUID)
}

// Transition moves an upgrade along the state machine. Illegal edges fail
// with an InvalidTransitionError and leave the record untouched. The
// confirm edge activates the referenced signal in the same transaction, so
// a reader never observes a confirmed upgrade next to an inactive signal.
func (s *Service) Transition(upgradeUUID, newStatus string) (*models.SignalUpgrade, error) {
	if !models.IsValidUpgradeStatus(newStatus) {
		return nil, apperr.Validation("unknown upgrade status %q", newStatus)
	}

	upgrade, err := s.repo.GetUpgradeByUUID(upgradeUUID)
	if err != nil {
		return nil, err
	}
	if !upgrade.CanTransitionTo(newStatus) {
		return nil, apperr.InvalidTransition("cannot transition upgrade from %s to %s", upgrade.Status, newStatus)
	}

	now := time.Now()
	switch newStatus {
	case models.UPGRADE_STATUS_CONFIRMED:
		return s.confirm(upgrade, now)
	case models.UPGRADE_STATUS_FAILED:
		return s.fail(upgrade)
	case models.UPGRADE_STATUS_REFUNDED:
		return s.refund(upgrade, now)
	default:
		return nil, apperr.InvalidTransition("cannot transition upgrade from %s to %s", upgrade.Status, newStatus)
	}
}

func (s *Service) confirm(upgrade *models.SignalUpgrade, now time.Time) (*models.SignalUpgrade, error) {
	var signal *models.Signal

	err := s.repo.InTransaction(func(tx Repository) error {
		var err error
		signal, err = tx.GetSignalByID(upgrade.SignalID)
		if err != nil {
			return err
		}

		Activate(signal, upgrade, now)
		if err := tx.SaveSignal(signal); err != nil {
			return err
		}

		upgrade.Status = models.UPGRADE_STATUS_CONFIRMED
		if upgrade.ConfirmedAt == nil {
			upgrade.ConfirmedAt = &now
		}
		if err := tx.SaveUpgrade(upgrade); err != nil {
			return err
		}

		return tx.CreateSignalUpdate(activationUpdate(signal, upgrade, now))
	})
	if err != nil {
		return nil, err
	}

	actionType, actionData := notify.ActionViewSignal(signal.UUID)
	s.notifier.Send(upgrade.UserID, notify.Message{
		Type:       models.NOTIFICATION_TYPE_PAYMENT_SUCCESS,
		Title:      "Dynamic Signal Activated!",
		Body:       fmt.Sprintf("Your %s signal is now dynamic with real-time updates for %d hours.", signal.Symbol, upgrade.DurationHours),
		Priority:   models.NOTIFICATION_PRIORITY_HIGH,
		ActionType: actionType,
		ActionData: actionData,
	})

	return upgrade, nil
}

func (s *Service) fail(upgrade *models.SignalUpgrade) (*models.SignalUpgrade, error) {
	upgrade.Status = models.UPGRADE_STATUS_FAILED
	upgrade.ConfirmedAt = nil
	if err := s.repo.SaveUpgrade(upgrade); err != nil {
		return nil, err
	}

	s.notifier.Send(upgrade.UserID, notify.Message{
		Type:     models.NOTIFICATION_TYPE_PAYMENT_FAILED,
		Title:    "Signal Upgrade Failed",
		Body:     "Your dynamic signal upgrade payment could not be processed. Please try again or contact support.",
		Priority: models.NOTIFICATION_PRIORITY_HIGH,
	})

	return upgrade, nil
}

func (s *Service) refund(upgrade *models.SignalUpgrade, now time.Time) (*models.SignalUpgrade, error) {
	err := s.repo.InTransaction(func(tx Repository) error {
		// Best effort on the signal side: a deleted signal must not block
		// the refund.
		signal, err := tx.GetSignalByID(upgrade.SignalID)
		if err == nil {
			if Deactivate(signal) {
				if err := tx.SaveSignal(signal); err != nil {
					return err
				}
			}
		} else if !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}

		upgrade.Status = models.UPGRADE_STATUS_REFUNDED
		if upgrade.RefundedAt == nil {
			upgrade.RefundedAt = &now
		}
		return tx.SaveUpgrade(upgrade)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Send(upgrade.UserID, notify.Message{
		Type:     models.NOTIFICATION_TYPE_PAYMENT_SUCCESS,
		Title:    "Signal Upgrade Refunded",
		Body:     "Your dynamic signal upgrade has been refunded. The refund will appear in your account within 3-5 business days.",
		Priority: models.NOTIFICATION_PRIORITY_MEDIUM,
	})

	return upgrade, nil
}
