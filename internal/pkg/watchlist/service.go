package watchlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/app/repository"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
	"github.com/pulseapp/PulseSignals/internal/pkg/pricealert"
)

// Service owns watchlist items: membership, alert configuration and the
// market price feed that drives crossing detection.
type Service struct {
	repo     repository.WatchlistRepository
	notifier notify.Emitter
}

// NewService creates a watchlist service.
func NewService(repo repository.WatchlistRepository, notifier notify.Emitter) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// AddItemInput carries the parameters for adding one symbol to a watchlist.
// A non-nil AlertTarget enables the price alert immediately.
type AddItemInput struct {
	UserID       uint
	Symbol       string
	CompanyName  string
	Type         string
	CurrentPrice float64
	Notes        string
	AlertTarget  *float64
}

// AddItem validates and stores a new watchlist entry. Each user holds a
// symbol at most once; re-adding is a conflict, not an upsert.
func (s *Service) AddItem(in AddItemInput) (*models.WatchlistItem, error) {
	item := &models.WatchlistItem{
		UserID:       in.UserID,
		Symbol:       strings.ToUpper(strings.TrimSpace(in.Symbol)),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		Type:         in.Type,
		CurrentPrice: in.CurrentPrice,
		Notes:        in.Notes,
		AddedAt:      time.Now(),
	}
	if in.AlertTarget != nil {
		if err := item.EnablePriceAlert(*in.AlertTarget); err != nil {
			return nil, err
		}
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUserAndSymbol(item.UserID, item.Symbol); err == nil {
		return nil, apperr.Conflict("%s is already on your watchlist", item.Symbol)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}

	if err := s.repo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem loads one item and enforces ownership.
func (s *Service) GetItem(userID, itemID uint) (*models.WatchlistItem, error) {
	item, err := s.repo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, apperr.Permission("watchlist item belongs to another user")
	}
	return item, nil
}

// ListItems returns the user's watchlist, most recently added first.
func (s *Service) ListItems(userID uint, limit int) ([]models.WatchlistItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByUser(userID, limit)
}

// UpdateItemInput carries a partial update; nil fields are left unchanged.
// Alert handling: enabling requires a positive target (either already set or
// supplied in the same call), disabling clears the target.
type UpdateItemInput struct {
	CompanyName *string
	Notes       *string
	AlertOn     *bool
	AlertTarget *float64
}

// UpdateItem applies a partial update to an owned item.
func (s *Service) UpdateItem(userID, itemID uint, in UpdateItemInput) (*models.WatchlistItem, error) {
	item, err := s.GetItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if in.CompanyName != nil {
		item.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}

	switch {
	case in.AlertOn != nil && !*in.AlertOn:
		item.DisablePriceAlert()
	case in.AlertOn != nil && *in.AlertOn:
		target := item.PriceAlertTarget
		if in.AlertTarget != nil {
			target = in.AlertTarget
		}
		if target == nil {
			return nil, apperr.Validation("price alert target is required when enabling alerts")
		}
		if err := item.EnablePriceAlert(*target); err != nil {
			return nil, err
		}
	case in.AlertTarget != nil && item.IsPriceAlertEnabled:
		if err := item.EnablePriceAlert(*in.AlertTarget); err != nil {
			return nil, err
		}
	case in.AlertTarget != nil:
		return nil, apperr.Validation("enable the price alert before setting a target")
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes an owned item.
func (s *Service) RemoveItem(userID, itemID uint) error {
	item, err := s.GetItem(userID, itemID)
	if err != nil {
		return err
	}
	return s.repo.Delete(item.ID)
}

// PriceUpdate is one quote from the market feed for one watchlist item.
type PriceUpdate struct {
	ItemID        uint    `json:"id"`
	Price         float64 `json:"current_price"`
	Change        float64 `json:"price_change"`
	ChangePercent float64 `json:"price_change_percent"`
}

// ApplyPriceUpdate stores a new quote on an owned item and emits alert
// notifications. Crossing detection compares the stored price against the
// incoming one; alerts stay armed after firing and may fire again on a later
// crossing in either direction.
func (s *Service) ApplyPriceUpdate(userID uint, in PriceUpdate) (*models.WatchlistItem, error) {
	item, err := s.GetItem(userID, in.ItemID)
	if err != nil {
		return nil, err
	}
	if in.Price <= 0 {
		return nil, apperr.Validation("current price must be a positive number")
	}

	previous := item.CurrentPrice
	crossed, direction := pricealert.CheckCrossing(item, previous, in.Price)

	item.CurrentPrice = in.Price
	item.PriceChange = in.Change
	item.PriceChangePercent = in.ChangePercent
	if err := s.repo.Update(item); err != nil {
		return nil, err
	}

	if crossed {
		s.notifier.Send(item.UserID, notify.Message{
			Type:     models.NOTIFICATION_TYPE_PRICE_ALERT,
			Title:    fmt.Sprintf("Price Alert: %s", item.Symbol),
			Body:     fmt.Sprintf("%s crossed %s your target of $%.2f and is now trading at $%.2f.", item.Symbol, direction, *item.PriceAlertTarget, item.CurrentPrice),
			Priority: models.NOTIFICATION_PRIORITY_HIGH,
		})
		log.Infof("[Watchlist] Price alert triggered: %s target %.2f direction %s", item.Symbol, *item.PriceAlertTarget, direction)
	}

	if pricealert.IsSignificantMove(item.PriceChangePercent) {
		s.notifier.Send(item.UserID, notify.Message{
			Type:     models.NOTIFICATION_TYPE_WATCHLIST,
			Title:    fmt.Sprintf("Significant Move: %s", item.Symbol),
			Body:     fmt.Sprintf("%s moved %+.2f%% today and is now trading at $%.2f.", item.Symbol, item.PriceChangePercent, item.CurrentPrice),
			Priority: models.NOTIFICATION_PRIORITY_MEDIUM,
		})
	}

	return item, nil
}

// ApplyPriceUpdates runs a batch of quotes. Per-item failures are logged and
// skipped so one bad row never blocks the rest of the feed. Returns the
// number of items updated.
func (s *Service) ApplyPriceUpdates(userID uint, updates []PriceUpdate) int {
	updated := 0
	for _, u := range updates {
		if _, err := s.ApplyPriceUpdate(userID, u); err != nil {
			log.Errorf("[Watchlist] Failed to update price for item %d: %v", u.ItemID, err)
			continue
		}
		updated++
	}
	return updated
}
