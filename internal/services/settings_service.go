package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

// ISettingsService serves the business identity used on invoices.
type ISettingsService interface {
	Get(ctx context.Context) (*models.BusinessSettings, error)
	Update(ctx context.Context, patch SettingsPatch) (*models.BusinessSettings, error)
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
}

type SettingsPatch struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Address      *string  `json:"address" validate:"omitempty,max=500"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        *string  `json:"phone" validate:"omitempty,max=50"`
	TaxID        *string  `json:"taxId" validate:"omitempty,max=50"`
	TaxRate      *float64 `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	CurrencyCode *string  `json:"currencyCode" validate:"omitempty,len=3"`
}

const settingsUpdateChannel = "settings_updates"

type settingsService struct {
	db       *mongo.Database
	cfg      *config.Config
	rdb      *redis.Client
	validate *validator.Validate

	mutex  sync.RWMutex
	cached *models.BusinessSettings
}

// NewSettingsService creates the service and loads the current settings. rdb may be nil,
// in which case changes made by other processes are not picked up until restart.
func NewSettingsService(database *mongo.Database, cfg *config.Config, rdb *redis.Client) ISettingsService {
	s := &settingsService{
		db:       database,
		cfg:      cfg,
		rdb:      rdb,
		validate: NewValidator(),
	}
	if err := s.Load(context.Background()); err != nil {
		slog.Warn("failed to load business settings, using defaults", "error", err)
	}
	return s
}

func (s *settingsService) defaults() *models.BusinessSettings {
	return &models.BusinessSettings{
		Key:          models.BusinessSettingsKey,
		Name:         s.cfg.AppName,
		Email:        s.cfg.SmtpFromAddress,
		CurrencyCode: s.cfg.CurrencyCode,
	}
}

// Load refreshes the in-memory copy from the database.
func (s *settingsService) Load(ctx context.Context) error {
	var doc models.BusinessSettings
	err := s.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": models.BusinessSettingsKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		doc = *s.defaults()
	} else if err != nil {
		return fmt.Errorf("failed to load business settings: %w", err)
	}
	if doc.CurrencyCode == "" {
		doc.CurrencyCode = s.cfg.CurrencyCode
	}
	s.mutex.Lock()
	s.cached = &doc
	s.mutex.Unlock()
	return nil
}

func (s *settingsService) Get(ctx context.Context) (*models.BusinessSettings, error) {
	s.mutex.RLock()
	cached := s.cached
	s.mutex.RUnlock()
	if cached == nil {
		if err := s.Load(ctx); err != nil {
			return nil, internalErr("load settings", err)
		}
		s.mutex.RLock()
		cached = s.cached
		s.mutex.RUnlock()
	}
	out := *cached
	return &out, nil
}

func (s *settingsService) Update(ctx context.Context, p SettingsPatch) (*models.BusinessSettings, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError(err)
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	for field, v := range map[string]*string{
		"name": p.Name, "address": p.Address, "email": p.Email,
		"phone": p.Phone, "tax_id": p.TaxID, "currency_code": p.CurrencyCode,
	} {
		if v != nil {
			set[field] = *v
		}
	}
	if p.TaxRate != nil {
		set["tax_rate"] = *p.TaxRate
	}
	def := s.defaults()
	setOnInsert := bson.M{}
	for field, v := range map[string]interface{}{"name": def.Name, "email": def.Email, "currency_code": def.CurrencyCode} {
		if _, ok := set[field]; !ok {
			setOnInsert[field] = v
		}
	}
	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	_, err := s.db.Collection(settingsCollection).UpdateOne(ctx,
		bson.M{"_id": models.BusinessSettingsKey}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, internalErr("save settings", err)
	}
	if err := s.Load(ctx); err != nil {
		return nil, internalErr("reload settings", err)
	}

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, settingsUpdateChannel, models.BusinessSettingsKey).Err(); err != nil {
			slog.WarnContext(ctx, "failed to publish settings update", "error", err)
		}
	}
	return s.Get(ctx)
}

// SubscribeToChanges reloads settings whenever another process publishes an update.
// It blocks until ctx is cancelled.
func (s *settingsService) SubscribeToChanges(ctx context.Context) error {
	if s.rdb == nil {
		slog.Info("Redis not configured, settings changes will not be propagated")
		return nil
	}
	pubsub := s.rdb.Subscribe(ctx, settingsUpdateChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", settingsUpdateChannel, err)
	}
	slog.Info("subscribed to settings updates", "channel", settingsUpdateChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Load(ctx); err != nil {
				slog.Error("failed to reload settings after update", "payload", msg.Payload, "error", err)
			}
		}
	}
}
