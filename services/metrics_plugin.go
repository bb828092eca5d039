package services

import (
	"time"

	"gorm.io/gorm"
)

const queryStartKey = "mandacafe:query_start"

// MetricsPlugin times every ORM operation and feeds the aggregator.
type MetricsPlugin struct {
	metrics *MetricsAggregator
}

func NewMetricsPlugin(m *MetricsAggregator) *MetricsPlugin {
	return &MetricsPlugin{metrics: m}
}

func (p *MetricsPlugin) Name() string { return "mandacafe:metrics" }

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", p.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", p.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("metrics:before_row", p.before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("metrics:after_row", p.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", p.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", p.after)
}

func (p *MetricsPlugin) before(tx *gorm.DB) {
	tx.InstanceSet(queryStartKey, time.Now())
}

func (p *MetricsPlugin) after(tx *gorm.DB) {
	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	if start, ok := v.(time.Time); ok {
		p.metrics.RecordDatabaseOperation(time.Since(start))
	}
}
