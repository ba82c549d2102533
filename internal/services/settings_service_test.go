package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

func TestSettingsService_DefaultsAndUpdate(t *testing.T) {
	database := setupLedgerDB(t, "settings_update")
	svc := NewSettingsService(database, testConfig(), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pixels", got.Name)
	assert.Equal(t, "INR", got.CurrencyCode)

	got, err = svc.Update(ctx, SettingsPatch{Address: ptr("12 MG Road, Pune"), TaxRate: ptr(18.0)})
	require.NoError(t, err)
	assert.Equal(t, "Pixels", got.Name)
	assert.Equal(t, "12 MG Road, Pune", got.Address)
	assert.Equal(t, 18.0, got.TaxRate)

	// a fresh instance reads the stored document
	again := NewSettingsService(database, testConfig(), nil)
	got, err = again.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road, Pune", got.Address)

	_, err = svc.Update(ctx, SettingsPatch{Email: ptr("not-an-email")})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	_, err = svc.Update(ctx, SettingsPatch{TaxRate: ptr(150.0)})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestSettingsService_PropagatesThroughRedis(t *testing.T) {
	database := setupLedgerDB(t, "settings_pubsub")
	rdb := utils.SetupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := NewSettingsService(database, testConfig(), rdb)
	reader := NewSettingsService(database, testConfig(), rdb)
	done := make(chan error, 1)
	go func() { done <- reader.SubscribeToChanges(ctx) }()
	time.Sleep(200 * time.Millisecond)

	_, err := writer.Update(ctx, SettingsPatch{Name: ptr("Pixels Studio")})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := reader.Get(context.Background())
		return err == nil && got.Name == "Pixels Studio"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
