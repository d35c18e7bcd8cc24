package controls

import (
	"fmt"
	"sync"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Source loads the trading controls file and pushes changes to subscribers
// while the session runs, so risk parameters can be tuned without restarting
// the tick stream.
type Source struct {
	v *viper.Viper

	mu       sync.RWMutex
	current  models.Controls
	onChange []func(models.Controls)
}

func NewSource(path string) (*Source, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("entry_trigger_percent", 0.5)
	v.SetDefault("max_risk_percent_per_trade", 0.5)
	v.SetDefault("max_investment_per_position", 300000.0)
	v.SetDefault("min_investment_per_position", 1000.0)
	v.SetDefault("position_stoploss_percent", 0.5)
	v.SetDefault("position_target_stoploss", 0.1)
	v.SetDefault("position_target_percent", 1.0)
	v.SetDefault("user_stoploss_percent", 5.0)
	v.SetDefault("user_target_stoploss", 1.0)
	v.SetDefault("user_target_percent", 10.0)
	v.SetDefault("entry_time_start", "09:15:04")
	v.SetDefault("entry_time_end", "15:18:00")
	v.SetDefault("exit_time", "15:19:00")
	v.SetDefault("order_variety", string(models.VarietyBracket))
	v.SetDefault("scalp_hold_minutes", 5)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read controls file: %w", err)
	}

	s := &Source{v: v}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) reload() error {
	var c models.Controls
	if err := s.v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal controls: %w", err)
	}

	s.mu.Lock()
	s.current = c
	subs := append([]func(models.Controls){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
	return nil
}

// Current returns the latest controls snapshot.
func (s *Source) Current() models.Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to run on every controls reload.
func (s *Source) Subscribe(fn func(models.Controls)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Watch starts watching the controls file for edits.
func (s *Source) Watch() {
	s.v.OnConfigChange(func(_ fsnotify.Event) {
		if err := s.reload(); err != nil {
			logger.Error("controls reload failed: %v", err)
			return
		}
		logger.Info("controls reloaded from %s", s.v.ConfigFileUsed())
	})
	s.v.WatchConfig()
}
