package model

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityTransitions(t *testing.T) {
	tests := []struct {
		from, to ActivityStatus
		want     bool
	}{
		{ActivityPreparing, ActivityOngoing, true},
		{ActivityPreparing, ActivityCancelled, true},
		{ActivityPreparing, ActivityCompleted, false},
		{ActivityOngoing, ActivityCompleted, true},
		{ActivityOngoing, ActivityCancelled, true},
		{ActivityOngoing, ActivityPreparing, false},
		{ActivityCompleted, ActivityCancelled, false},
		{ActivityCancelled, ActivityOngoing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, ActivityCompleted.Terminal())
	assert.True(t, ActivityCancelled.Terminal())
	assert.False(t, ActivityOngoing.Terminal())
	assert.False(t, ActivityStatus("PAUSED").Valid())
}

func TestReservationAndBillingTransitions(t *testing.T) {
	assert.True(t, ReservationPending.CanTransitionTo(ReservationApproved))
	assert.True(t, ReservationPending.CanTransitionTo(ReservationRejected))
	assert.True(t, ReservationApproved.CanTransitionTo(ReservationCancelled))
	assert.False(t, ReservationApproved.CanTransitionTo(ReservationRejected))
	assert.False(t, ReservationRejected.CanTransitionTo(ReservationApproved))
	assert.Empty(t, reservationTransitions[ReservationRejected])

	assert.True(t, BillingPending.CanTransitionTo(BillingConfirmed))
	assert.True(t, BillingConfirmed.CanTransitionTo(BillingPaid))
	assert.False(t, BillingPending.CanTransitionTo(BillingPaid))
	assert.False(t, BillingPaid.CanTransitionTo(BillingCancelled))
	assert.Empty(t, billingTransitions[BillingPaid])
}

func TestWindowOverlap(t *testing.T) {
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	w := func(h1, h2 int) Window {
		return Window{Start: base.Add(time.Duration(h1) * time.Hour), End: base.Add(time.Duration(h2) * time.Hour)}
	}
	assert.True(t, w(0, 2).Overlaps(w(1, 3)))
	assert.True(t, w(0, 4).Overlaps(w(1, 2)))
	assert.False(t, w(0, 2).Overlaps(w(2, 4)), "touching windows do not overlap")
	assert.False(t, w(2, 4).Overlaps(w(0, 2)))
	assert.True(t, w(2, 2).Empty())
	assert.True(t, w(3, 1).Empty())
}

func TestWindowOverlapIsSymmetric(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		a := Window{Start: base.Add(time.Duration(rnd.Intn(48)) * 30 * time.Minute)}
		a.End = a.Start.Add(time.Duration(1+rnd.Intn(8)) * 30 * time.Minute)
		b := Window{Start: base.Add(time.Duration(rnd.Intn(48)) * 30 * time.Minute)}
		b.End = b.Start.Add(time.Duration(1+rnd.Intn(8)) * 30 * time.Minute)
		require.Equal(t, a.Overlaps(b), b.Overlaps(a))
		shared := a.Start.Before(b.End) && b.Start.Before(a.End)
		require.Equal(t, shared, a.Overlaps(b))
	}
}

func TestDecodeAreaExtension(t *testing.T) {
	ext, err := DecodeAreaExtension(AreaKindEvent, []byte(`{"capacity":300,"area_fee":"50"}`))
	require.NoError(t, err)
	assert.Equal(t, AreaKindEvent, ext.Kind())
	area := Area{ID: 1, Kind: AreaKindEvent, Ext: ext}
	capacity, ok := area.EventCapacity()
	assert.True(t, ok)
	assert.Equal(t, 300, capacity)

	ext, err = DecodeAreaExtension(AreaKindParking, []byte(`{"spaces":80}`))
	require.NoError(t, err)
	_, ok = Area{Kind: AreaKindParking, Ext: ext}.EventCapacity()
	assert.False(t, ok)

	_, err = DecodeAreaExtension("ROOFTOP", nil)
	assert.Error(t, err)
	_, err = DecodeAreaExtension(AreaKindEvent, []byte(`{"capacity":-1}`))
	assert.Error(t, err)
}

func TestFeeConfigAppliesAt(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	assert.True(t, FeeConfig{Active: true, EffectiveDate: now.Add(-24 * time.Hour)}.AppliesAt(now))
	assert.True(t, FeeConfig{Active: true, EffectiveDate: now, ExpiryDate: &later}.AppliesAt(now))
	assert.False(t, FeeConfig{Active: true, EffectiveDate: now.Add(-24 * time.Hour), ExpiryDate: &expired}.AppliesAt(now))
	assert.False(t, FeeConfig{Active: true, EffectiveDate: later}.AppliesAt(now))
	assert.False(t, FeeConfig{Active: false, EffectiveDate: expired}.AppliesAt(now))
}

func TestParseDiscount(t *testing.T) {
	d, err := ParseDiscount([]byte(`{"type":"FULL_REDUCTION","threshold":"300","amount":"50"}`))
	require.NoError(t, err)
	assert.True(t, d.Apply(decimal.NewFromInt(375)).Equal(decimal.NewFromInt(325)))
	assert.True(t, d.Apply(decimal.NewFromInt(250)).Equal(decimal.NewFromInt(250)))

	d, err = ParseDiscount([]byte(`{"type":"PERCENT","factor":"0.85"}`))
	require.NoError(t, err)
	assert.Equal(t, DiscountPercent, d.Tag())
	assert.Equal(t, "212.5", d.Apply(decimal.NewFromInt(250)).String())

	_, err = ParseDiscount([]byte(`{"type":"BUY_ONE_GET_ONE"}`))
	assert.ErrorIs(t, err, ErrUnknownDiscount)
	_, err = ParseDiscount([]byte(`{"factor":"0.5"}`))
	assert.ErrorIs(t, err, ErrUnknownDiscount)
	_, err = ParseDiscount([]byte(`{"type":"PERCENT","factor":"1.5"}`))
	assert.Error(t, err)
}

func TestFullReductionFloorsAtZero(t *testing.T) {
	d := FullReduction{Threshold: decimal.NewFromInt(10), Amount: decimal.NewFromInt(100)}
	assert.True(t, d.Apply(decimal.NewFromInt(40)).IsZero())
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentBankTransfer))
	assert.False(t, ValidPaymentMethod("BARTER"))
}
