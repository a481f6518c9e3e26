package billing

import "time"

// IdempotencyRecord remembers the provider result of an operation keyed by
// the caller's id, so a replay is answered locally.
type IdempotencyRecord struct {
	Operation string `gorm:"primaryKey;type:text"`
	Key       string `gorm:"primaryKey;type:text"`
	ResultID  string `gorm:"column:result_id;not null"`
	CreatedAt time.Time
}

func (IdempotencyRecord) TableName() string {
	return "billing_idempotency"
}

const (
	OperationReportCompute = "report_compute"
	OperationReportStorage = "report_storage"
)
