package service

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/models"
)

type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	ReplaceAll(ctx context.Context, values map[string]string) error
}

type SettingsService struct {
	store SettingsStore
	log   *zap.Logger
}

func NewSettingsService(store SettingsStore, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsService{store: store, log: log}
}

// All returns every stored setting; numeric values are returned as numbers.
func (s *SettingsService) All(ctx context.Context) (map[string]any, error) {
	raw, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (s *SettingsService) CreditRates(ctx context.Context) (models.CreditRates, error) {
	values, err := s.store.Get(ctx, models.SettingUSDToBDT, models.SettingCreditsPerDollar)
	if err != nil {
		return models.CreditRates{}, err
	}
	return creditRatesFrom(values), nil
}

// FreeSignupCredits returns the grant for new password accounts, zero when unset.
func (s *SettingsService) FreeSignupCredits(ctx context.Context) (int64, error) {
	values, err := s.store.Get(ctx, models.SettingFreeSignupCredits)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(values[models.SettingFreeSignupCredits])
	if err != nil || d.IsNegative() {
		return 0, nil
	}
	return d.IntPart(), nil
}

// Save validates and replaces all four settings together.
func (s *SettingsService) Save(ctx context.Context, settings models.AppSettings) error {
	one := decimal.NewFromInt(1)
	switch {
	case settings.CreditsPerDollar.LessThan(one):
		return invalid("Invalid creditsPerDollar")
	case settings.USDToBDT.LessThan(one):
		return invalid("Invalid usdToBdt")
	case settings.FreeSignupCredits.IsNegative():
		return invalid("Invalid freeSignupCredits")
	case settings.FreeCreationCredits.IsNegative():
		return invalid("Invalid freeCreationCredits")
	}

	err := s.store.ReplaceAll(ctx, map[string]string{
		models.SettingCreditsPerDollar:    settings.CreditsPerDollar.String(),
		models.SettingUSDToBDT:            settings.USDToBDT.String(),
		models.SettingFreeSignupCredits:   settings.FreeSignupCredits.String(),
		models.SettingFreeCreationCredits: settings.FreeCreationCredits.String(),
	})
	if err != nil {
		return err
	}
	s.log.Info("settings saved",
		zap.String("credits_per_dollar", settings.CreditsPerDollar.String()),
		zap.String("usd_to_bdt", settings.USDToBDT.String()))
	return nil
}
