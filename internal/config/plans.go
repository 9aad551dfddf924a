package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Plan is a premium subscription tier artists can purchase.
type Plan struct {
	Name     string  `mapstructure:"name"`
	Amount   float64 `mapstructure:"amount"`
	Currency string  `mapstructure:"currency"`
}

type PlanCatalog struct {
	Plans []Plan `mapstructure:"plans"`
}

func DefaultPlanCatalog() PlanCatalog {
	return PlanCatalog{
		Plans: []Plan{
			{Name: "Pro", Amount: 499, Currency: "INR"},
			{Name: "Studio", Amount: 1499, Currency: "INR"},
		},
	}
}

// Find returns the plan with the given name, case-insensitively.
func (c PlanCatalog) Find(name string) (Plan, bool) {
	name = strings.TrimSpace(name)
	for _, plan := range c.Plans {
		if strings.EqualFold(plan.Name, name) {
			return plan, true
		}
	}
	return Plan{}, false
}

type PlanCatalogHolder struct {
	current atomic.Value
}

// NewStaticPlanCatalogHolder wraps a fixed catalog, mostly useful in tests.
func NewStaticPlanCatalogHolder(catalog PlanCatalog) *PlanCatalogHolder {
	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)
	return holder
}

func NewPlanCatalogHolder(cfg Config, log *zap.Logger) (*PlanCatalogHolder, error) {
	log = log.Named("config.plans")
	v := viper.New()

	if cfg.PlansFile != "" {
		v.SetConfigFile(cfg.PlansFile)
	} else {
		v.SetConfigName("plans")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/cloudstage")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("CLOUDSTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fromFile = false
	}

	catalog := DefaultPlanCatalog()
	if fromFile {
		var loaded PlanCatalog
		if err := v.Unmarshal(&loaded); err != nil {
			return nil, err
		}
		if err := validatePlanCatalog(loaded); err != nil {
			return nil, err
		}
		catalog = loaded
	}

	holder := NewStaticPlanCatalogHolder(catalog)

	if fromFile {
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated PlanCatalog
			if err := v.Unmarshal(&updated); err != nil {
				log.Warn("plan catalog reload failed", zap.Error(err))
				return
			}
			if err := validatePlanCatalog(updated); err != nil {
				log.Warn("invalid plan catalog ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("plan catalog reloaded", zap.String("file", e.Name), zap.Int("plans", len(updated.Plans)))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// Get returns the current catalog, or the built-in defaults on a nil holder.
func (h *PlanCatalogHolder) Get() PlanCatalog {
	if h == nil {
		return DefaultPlanCatalog()
	}
	return h.current.Load().(PlanCatalog)
}

func validatePlanCatalog(catalog PlanCatalog) error {
	if len(catalog.Plans) == 0 {
		return errors.New("plans cannot be empty")
	}
	seen := map[string]struct{}{}
	for _, plan := range catalog.Plans {
		name := strings.ToLower(strings.TrimSpace(plan.Name))
		if name == "" {
			return errors.New("plan name is required")
		}
		if plan.Amount <= 0 {
			return errors.New("plan amount must be positive")
		}
		if _, ok := seen[name]; ok {
			return errors.New("duplicate plan " + plan.Name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
