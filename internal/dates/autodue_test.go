package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawConfig(t *testing.T, doc string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestResolveAutoDueConfig_FlatDayCounts(t *testing.T) {
	raw := rawConfig(t, `{"day": 1, "tomorrow": 2, "backlog": 45.6}`)
	resolved, err := ResolveAutoDueConfig(raw, wednesday)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved["day"])
	assert.Equal(t, 2, resolved["tomorrow"])
	assert.Equal(t, 46, resolved["backlog"])
}

func TestResolveAutoDueConfig_PeriodDescriptors(t *testing.T) {
	// Wednesday 2025-01-08: 4 days left in the week, 23 in the month.
	raw := rawConfig(t, `{
		"week": {"periodType": "week"},
		"month": {"periodType": "month", "dividePeriodBy": 2},
		"quarter": {"periodType": "year", "endOfPeriod": false, "dividePeriodBy": 4},
		"fortnight": {"periodType": "week", "endOfPeriod": false, "multiplyPeriodBy": 2}
	}`)
	resolved, err := ResolveAutoDueConfig(raw, wednesday)
	require.NoError(t, err)

	assert.Equal(t, RemnDaysInWeek(wednesday), resolved["week"])
	assert.Equal(t, 12, resolved["month"]) // round(23/2)
	assert.Equal(t, 91, resolved["quarter"])
	assert.Equal(t, 14, resolved["fortnight"])
}

func TestResolveAutoDueConfig_SkipsUnusableEntries(t *testing.T) {
	raw := rawConfig(t, `{"week": {"note": "missing periodType"}, "bad": "seven", "day": 1}`)
	resolved, err := ResolveAutoDueConfig(raw, wednesday)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"day": 1}, resolved)
}

func TestPeriodDescriptor_Errors(t *testing.T) {
	zero := 0.0
	_, err := PeriodDescriptor{PeriodType: "week", DividePeriodBy: &zero}.Resolve(time.Now())
	assert.Error(t, err)

	_, err = PeriodDescriptor{PeriodType: "decade"}.Resolve(time.Now())
	assert.Error(t, err)
}
