package strategy

import "fmt"

// New resolves a trading variant by name. The variants are parameterizations
// of one engine, not separate implementations.
func New(name string) (*Config, error) {
	switch name {
	case "short", "short_stoploss", "":
		return &Config{Name: "short_stoploss", Short: true, Exit: ExitTrailing}, nil
	case "long", "long_stoploss":
		return &Config{Name: "long_stoploss", Short: false, Exit: ExitTrailing}, nil
	case "short_fixed":
		return &Config{Name: "short_fixed", Short: true, Exit: ExitFixed}, nil
	case "long_fixed":
		return &Config{Name: "long_fixed", Short: false, Exit: ExitFixed}, nil
	case "short_scalp":
		return &Config{Name: "short_scalp", Short: true, Exit: ExitScalp}, nil
	case "long_scalp":
		return &Config{Name: "long_scalp", Short: false, Exit: ExitScalp}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
