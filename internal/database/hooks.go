package database

import (
	"errors"
	"time"

	"example.com/backstage/services/picking/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks times every create, query, update and delete
func RegisterMetricsHooks(db *gorm.DB, collector *metrics.Metrics) error {
	cb := db.Callback()
	record := func(kind metrics.DBQueryType) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			collector.RecordDatabaseQuery(kind, tx.Error == nil || errors.Is(tx.Error, gorm.ErrRecordNotFound), elapsed(tx))
		}
	}

	return errors.Join(
		cb.Create().Before("gorm:create").Register("duration:create", markStart),
		cb.Query().Before("gorm:query").Register("duration:query", markStart),
		cb.Update().Before("gorm:update").Register("duration:update", markStart),
		cb.Delete().Before("gorm:delete").Register("duration:delete", markStart),

		cb.Create().After("gorm:create").Register("metrics:create", record(metrics.DBQueryTypeInsert)),
		cb.Query().After("gorm:query").Register("metrics:query", record(metrics.DBQueryTypeSelect)),
		cb.Update().After("gorm:update").Register("metrics:update", record(metrics.DBQueryTypeUpdate)),
		cb.Delete().After("gorm:delete").Register("metrics:delete", record(metrics.DBQueryTypeDelete)),
	)
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startTimeKey, time.Now())
}

func elapsed(tx *gorm.DB) time.Duration {
	if start, ok := tx.InstanceGet(startTimeKey); ok {
		if t, ok := start.(time.Time); ok {
			return time.Since(t)
		}
	}
	return 0
}
