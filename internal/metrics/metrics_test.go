package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementCounter(PickListsGenerated)
			}
		}()
	}
	wg.Wait()

	m.IncrementCounterBy(PicksCreated, 7)
	m.SetGauge(AvailableProducts, 3)
	m.SetGauge(AvailableProducts, 5)

	require.Equal(t, int64(1000), m.GetCounters()[PickListsGenerated])
	require.Equal(t, int64(7), m.GetCounters()[PicksCreated])
	require.Equal(t, int64(5), m.GetGauges()[AvailableProducts])
}

func TestTimers(t *testing.T) {
	m := NewMetrics()
	m.RecordTimer(GenerationDuration, 10)
	m.RecordTimer(GenerationDuration, 30)
	m.RecordDuration(GenerationDuration, 20*time.Millisecond)

	timer := m.GetTimers()[GenerationDuration]
	require.Equal(t, int64(3), timer.Count)
	require.Equal(t, int64(60), timer.TotalTimeMs)
	require.Equal(t, int64(10), timer.MinTimeMs)
	require.Equal(t, int64(30), timer.MaxTimeMs)
	require.InDelta(t, 20.0, timer.AverageTimeMs, 0.001)
}

func TestErrorRatesAndOutcome(t *testing.T) {
	m := NewMetrics()
	start := time.Now()
	m.RecordOutcome("generate", start, nil)
	m.RecordOutcome("generate", start, errors.New("failed"))
	m.RecordDatabaseQuery(DBQueryTypeInsert, true, time.Millisecond)

	rates := m.GetErrorRates()
	require.Equal(t, int64(2), rates["generate"].Total)
	require.Equal(t, int64(1), rates["generate"].Errors)
	require.InDelta(t, 50.0, rates["generate"].ErrorRate, 0.001)
	require.Equal(t, int64(0), rates["db_insert"].Errors)
	require.Contains(t, m.GetTimers(), "db_insert")
}

func TestHealthChecks(t *testing.T) {
	m := NewMetrics()
	m.SetHealth("database", true)
	m.SetHealth("redis", false)

	checks := m.GetHealthChecks()
	require.True(t, checks["database"])
	require.False(t, checks["redis"])

	all := m.GetAllMetrics()
	require.Contains(t, all, "uptime_seconds")
	require.Contains(t, all, "health_checks")
}
