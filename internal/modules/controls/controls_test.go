package controls

import (
	"os"
	"path/filepath"
	"testing"

	"stock_trader/internal/models"
	"stock_trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.ReplaceLogger(zap.NewNop())
}

func writeControls(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceDefaults(t *testing.T) {
	src, err := NewSource(writeControls(t, "entry_trigger_percent: 0.5\n"))
	require.NoError(t, err)

	c := src.Current()
	assert.InDelta(t, 0.5, c.EntryTriggerPercent, 1e-9)
	assert.InDelta(t, 0.5, c.MaxRiskPercentPerTrade, 1e-9)
	assert.InDelta(t, 300000.0, c.MaxInvestmentPerPosition, 1e-9)
	assert.InDelta(t, 5.0, c.UserStoplossPercent, 1e-9)
	assert.Equal(t, "09:15:04", c.EntryTimeStart)
	assert.Equal(t, "15:19:00", c.ExitTime)
	assert.Equal(t, models.VarietyBracket, c.OrderVariety)
	assert.Equal(t, 5, c.ScalpHoldMinutes)
}

func TestSourceOverrides(t *testing.T) {
	src, err := NewSource(writeControls(t, `
entry_trigger_percent: 1.2
max_risk_percent_per_trade: 0.25
order_variety: "regular"
exit_time: "15:10:00"
`))
	require.NoError(t, err)

	c := src.Current()
	assert.InDelta(t, 1.2, c.EntryTriggerPercent, 1e-9)
	assert.InDelta(t, 0.25, c.MaxRiskPercentPerTrade, 1e-9)
	assert.Equal(t, models.VarietyRegular, c.OrderVariety)
	assert.Equal(t, "15:10:00", c.ExitTime)
	// untouched keys keep their defaults
	assert.InDelta(t, 1000.0, c.MinInvestmentPerPosition, 1e-9)
}

func TestSourceMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSubscribeSeesReload(t *testing.T) {
	path := writeControls(t, "entry_trigger_percent: 0.5\n")
	src, err := NewSource(path)
	require.NoError(t, err)

	var got []models.Controls
	src.Subscribe(func(c models.Controls) { got = append(got, c) })
	var second int
	src.Subscribe(func(models.Controls) { second++ })

	require.NoError(t, os.WriteFile(path, []byte("entry_trigger_percent: 0.9\n"), 0o644))
	require.NoError(t, src.v.ReadInConfig())
	require.NoError(t, src.reload())

	require.Len(t, got, 1)
	assert.InDelta(t, 0.9, got[0].EntryTriggerPercent, 1e-9)
	assert.InDelta(t, 0.9, src.Current().EntryTriggerPercent, 1e-9)
	assert.Equal(t, 1, second)
}
