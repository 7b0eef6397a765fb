package upgrades

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
	"github.com/pulseapp/PulseSignals/internal/pkg/notify"
)

// fakeRepo is an in-memory Repository. Reads return copies and writes store
// copies so tests observe what a concurrent reader of the store would see.
type fakeRepo struct {
	mu             sync.Mutex
	upgrades       map[string]models.SignalUpgrade // keyed by UUID
	signals        map[uint]models.Signal
	updates        []models.SignalUpdate
	nextID         uint
	failSaveSignal bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		upgrades: make(map[string]models.SignalUpgrade),
		signals:  make(map[uint]models.Signal),
	}
}

func (f *fakeRepo) addSignal(s models.Signal) models.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	f.signals[s.ID] = s
	return s
}

func (f *fakeRepo) CreateUpgrade(u *models.SignalUpgrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.upgrades {
		if existing.PaymentIntentID == u.PaymentIntentID {
			return apperr.Conflict("upgrade already exists")
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.upgrades[u.UUID] = *u
	return nil
}

func (f *fakeRepo) SaveUpgrade(u *models.SignalUpgrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upgrades[u.UUID] = *u
	return nil
}

func (f *fakeRepo) GetUpgradeByUUID(id string) (*models.SignalUpgrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.upgrades[id]
	if !ok {
		return nil, apperr.NotFound("upgrade not found")
	}
	out := u
	return &out, nil
}

func (f *fakeRepo) GetUpgradeByPaymentRef(ref string) (*models.SignalUpgrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.upgrades {
		if u.PaymentIntentID == ref {
			out := u
			return &out, nil
		}
	}
	return nil, apperr.NotFound("upgrade not found")
}

func (f *fakeRepo) GetSignalByID(id uint) (*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.signals[id]
	if !ok {
		return nil, apperr.NotFound("signal not found")
	}
	out := s
	return &out, nil
}

func (f *fakeRepo) GetSignalByUUID(id string) (*models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.signals {
		if s.UUID == id {
			out := s
			return &out, nil
		}
	}
	return nil, apperr.NotFound("signal not found")
}

func (f *fakeRepo) SaveSignal(s *models.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveSignal {
		return apperr.Store("signal write failed", nil)
	}
	f.signals[s.ID] = *s
	return nil
}

func (f *fakeRepo) CreateSignalUpdate(u *models.SignalUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, *u)
	return nil
}

func (f *fakeRepo) ListDueConfirmedUpgrades(now time.Time, limit int) ([]models.SignalUpgrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.SignalUpgrade
	for _, u := range f.upgrades {
		if u.Status == models.UPGRADE_STATUS_CONFIRMED && u.ExpiresAt.Before(now) && len(due) < limit {
			due = append(due, u)
		}
	}
	return due, nil
}

func (f *fakeRepo) ListDueActiveSignals(now time.Time, limit int) ([]models.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.Signal
	for _, s := range f.signals {
		if s.Status == models.SIGNAL_STATUS_ACTIVE && s.ExpiresAt != nil && s.ExpiresAt.Before(now) && len(due) < limit {
			due = append(due, s)
		}
	}
	return due, nil
}

func (f *fakeRepo) InTransaction(fn func(Repository) error) error {
	return fn(f)
}

type fakeEmitter struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (e *fakeEmitter) Send(userID uint, msg notify.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, msg)
}

func (e *fakeEmitter) count(msgType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, m := range e.sent {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func activeSignal(repo *fakeRepo) models.Signal {
	return repo.addSignal(models.Signal{
		UUID:         uuid.NewString(),
		Symbol:       "TSLA",
		Status:       models.SIGNAL_STATUS_ACTIVE,
		RequiredTier: models.TIER_PREMIUM,
		CurrentPrice: 250,
	})
}

func createPending(t *testing.T, svc *Service, signalUUID string, ref string) *models.SignalUpgrade {
	t.Helper()
	upgrade, err := svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID: signalUUID,
		UserID:     7,
		PaymentRef: ref,
		Amount:     decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)
	return upgrade
}

func TestCreateUpgradeDefaults(t *testing.T) {
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := NewService(repo, emitter)
	signal := activeSignal(repo)

	before := time.Now()
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	assert.Equal(t, models.UPGRADE_STATUS_PENDING, upgrade.Status)
	assert.Equal(t, "USD", upgrade.Currency)
	assert.Equal(t, 72, upgrade.DurationHours)
	assert.Equal(t, signal.ID, upgrade.SignalID)
	assert.WithinDuration(t, before.Add(72*time.Hour), upgrade.ExpiresAt, 2*time.Second)
	assert.Nil(t, upgrade.ConfirmedAt)

	require.Len(t, emitter.sent, 1)
	assert.Equal(t, "Signal Upgrade Processing", emitter.sent[0].Title)
}

func TestCreateUpgradeValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)

	tests := []struct {
		name string
		in   CreateUpgradeInput
	}{
		{"missing payment ref", CreateUpgradeInput{SignalUUID: signal.UUID, UserID: 7, Amount: decimal.NewFromInt(5)}},
		{"missing user", CreateUpgradeInput{SignalUUID: signal.UUID, PaymentRef: "pi_1", Amount: decimal.NewFromInt(5)}},
		{"missing signal", CreateUpgradeInput{UserID: 7, PaymentRef: "pi_1", Amount: decimal.NewFromInt(5)}},
		{"zero amount", CreateUpgradeInput{SignalUUID: signal.UUID, UserID: 7, PaymentRef: "pi_1"}},
		{"negative amount", CreateUpgradeInput{SignalUUID: signal.UUID, UserID: 7, PaymentRef: "pi_1", Amount: decimal.NewFromInt(-5)}},
		{"duration too long", CreateUpgradeInput{SignalUUID: signal.UUID, UserID: 7, PaymentRef: "pi_1", Amount: decimal.NewFromInt(5), DurationHours: 169}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUpgrade(tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "kind = %v", apperr.KindOf(err))
		})
	}
}

func TestCreateUpgradeIdempotentPaymentRef(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)

	first := createPending(t, svc, signal.UUID, "pi_123")
	second, err := svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID: signal.UUID,
		UserID:     7,
		PaymentRef: "pi_123",
		Amount:     decimal.NewFromFloat(9.99),
	})
	require.NoError(t, err)

	assert.Equal(t, first.UUID, second.UUID)
	assert.Equal(t, models.UPGRADE_STATUS_PENDING, second.Status)
	assert.Len(t, repo.upgrades, 1, "no duplicate may be created")

	// The same reference for a different caller is a conflict, not a reuse.
	_, err = svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID: signal.UUID,
		UserID:     99,
		PaymentRef: "pi_123",
		Amount:     decimal.NewFromFloat(9.99),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestTransitionConfirmActivatesSignal(t *testing.T) {
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := NewService(repo, emitter)
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	confirmed, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_CONFIRMED, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	stored, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDynamic)
	require.NotNil(t, stored.DynamicUserID)
	assert.Equal(t, upgrade.UserID, *stored.DynamicUserID)
	require.NotNil(t, stored.DynamicExpiresAt)
	assert.Equal(t, upgrade.ExpiresAt.Unix(), stored.DynamicExpiresAt.Unix())
	assert.NotNil(t, stored.LastPriceUpdate)

	require.Len(t, repo.updates, 1)
	assert.Equal(t, models.UPDATE_TYPE_ACTIVATION, repo.updates[0].UpdateType)
	assert.Equal(t, "Dynamic Signal Activated!", emitter.sent[len(emitter.sent)-1].Title)
}

func TestTransitionConfirmThenRefund(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	_, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)

	refunded, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_REFUNDED)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_REFUNDED, refunded.Status)
	require.NotNil(t, refunded.RefundedAt)
	require.NotNil(t, refunded.ConfirmedAt, "refund keeps the confirmation timestamp")

	stored, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDynamic)
	assert.Nil(t, stored.DynamicUserID)
	assert.Nil(t, stored.DynamicExpiresAt)
}

func TestTransitionIllegalEdges(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	// pending -> refunded is not a legal edge.
	_, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_REFUNDED)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition), "kind = %v", apperr.KindOf(err))

	stored, err := repo.GetUpgradeByUUID(upgrade.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_PENDING, stored.Status)

	// Unknown status is validation, not transition.
	_, err = svc.Transition(upgrade.UUID, "chargeback")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// Terminal states reject everything.
	_, err = svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_FAILED)
	require.NoError(t, err)
	_, err = svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidTransition))
}

func TestTransitionConfirmFailsWhenSignalWriteFails(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	repo.failSaveSignal = true
	_, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.Error(t, err)

	// The transition must not be partially applied.
	stored, err := repo.GetUpgradeByUUID(upgrade.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_PENDING, stored.Status)
	assert.Nil(t, stored.ConfirmedAt)
}

func TestTransitionFailedClearsConfirmedAt(t *testing.T) {
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := NewService(repo, emitter)
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")

	failed, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_FAILED)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_FAILED, failed.Status)
	assert.Nil(t, failed.ConfirmedAt)
	assert.Equal(t, 1, emitter.count(models.NOTIFICATION_TYPE_PAYMENT_FAILED))

	// No signal mutation on failure.
	stored, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDynamic)
}

func TestTransitionRefundSurvivesMissingSignal(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)
	upgrade := createPending(t, svc, signal.UUID, "pi_123")
	_, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.signals, signal.ID)
	repo.mu.Unlock()

	refunded, err := svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_REFUNDED)
	require.NoError(t, err, "refund is best-effort on the signal side")
	assert.Equal(t, models.UPGRADE_STATUS_REFUNDED, refunded.Status)
}

func TestExpireDueUpgradesIdempotent(t *testing.T) {
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := NewService(repo, emitter)
	signal := activeSignal(repo)

	upgrade, err := svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID:    signal.UUID,
		UserID:        7,
		PaymentRef:    "pi_123",
		Amount:        decimal.NewFromFloat(9.99),
		DurationHours: 1,
	})
	require.NoError(t, err)
	_, err = svc.Transition(upgrade.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)

	after := upgrade.ExpiresAt.Add(time.Minute)

	count, err := svc.ExpireDueUpgrades(after)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDynamic)
	assert.Nil(t, stored.DynamicUserID)
	assert.Nil(t, stored.DynamicExpiresAt)

	// The upgrade stays confirmed as the historical payment record.
	storedUpgrade, err := repo.GetUpgradeByUUID(upgrade.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.UPGRADE_STATUS_CONFIRMED, storedUpgrade.Status)

	// Second run: same end state, already-inactive signal untouched.
	count, err = svc.ExpireDueUpgrades(after)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, emitter.count(models.NOTIFICATION_TYPE_SYSTEM_ALERT))

	again, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.IsDynamic, again.IsDynamic)
}

func TestExpireDueUpgradesKeepsRefreshedWindow(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})
	signal := activeSignal(repo)

	// First paid window has elapsed...
	first, err := svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID:    signal.UUID,
		UserID:        7,
		PaymentRef:    "pi_first",
		Amount:        decimal.NewFromFloat(9.99),
		DurationHours: 1,
	})
	require.NoError(t, err)
	_, err = svc.Transition(first.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)

	// ...but a second upgrade re-activated the signal with a later expiry.
	second, err := svc.CreateUpgrade(CreateUpgradeInput{
		SignalUUID:    signal.UUID,
		UserID:        8,
		PaymentRef:    "pi_second",
		Amount:        decimal.NewFromFloat(9.99),
		DurationHours: 48,
	})
	require.NoError(t, err)
	_, err = svc.Transition(second.UUID, models.UPGRADE_STATUS_CONFIRMED)
	require.NoError(t, err)

	now := first.ExpiresAt.Add(time.Minute)
	_, err = svc.ExpireDueUpgrades(now)
	require.NoError(t, err)

	stored, err := repo.GetSignalByID(signal.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDynamic, "active paid window must survive the stale upgrade's expiry")
	require.NotNil(t, stored.DynamicUserID)
	assert.Equal(t, uint(8), *stored.DynamicUserID)
}

func TestExpireDueSignals(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeEmitter{})

	past := time.Now().Add(-time.Hour)
	due := repo.addSignal(models.Signal{
		Symbol:    "OLD",
		Status:    models.SIGNAL_STATUS_ACTIVE,
		ExpiresAt: &past,
	})
	fresh := time.Now().Add(time.Hour)
	keep := repo.addSignal(models.Signal{
		Symbol:    "NEW",
		Status:    models.SIGNAL_STATUS_ACTIVE,
		ExpiresAt: &fresh,
	})
	completed := repo.addSignal(models.Signal{
		Symbol: "DONE",
		Status: models.SIGNAL_STATUS_COMPLETED,
	})

	count, err := svc.ExpireDueSignals(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, _ := repo.GetSignalByID(due.ID)
	assert.Equal(t, models.SIGNAL_STATUS_EXPIRED, expired.Status)

	kept, _ := repo.GetSignalByID(keep.ID)
	assert.Equal(t, models.SIGNAL_STATUS_ACTIVE, kept.Status)

	// A completed signal has no expiry and is never swept.
	done, _ := repo.GetSignalByID(completed.ID)
	assert.Equal(t, models.SIGNAL_STATUS_COMPLETED, done.Status)

	// Re-running changes nothing.
	count, err = svc.ExpireDueSignals(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
