package usage

import "time"

// ComputeHourly is one hour of compute consumption for a deployment shape.
// StripeUsageRecordID is set once, after the row has been reported.
type ComputeHourly struct {
	ID                  string    `gorm:"primaryKey;type:text"`
	BatchID             string    `gorm:"column:batch_id"`
	WorkspaceID         string    `gorm:"column:workspace_id;index"`
	DeploymentName      string    `gorm:"column:deployment_name"`
	Shape               string    `gorm:"column:shape"`
	Usage               float64   `gorm:"column:usage"`
	EndTime             time.Time `gorm:"column:end_time"`
	StripeUsageRecordID *string   `gorm:"column:stripe_usage_record_id"`
}

func (ComputeHourly) TableName() string {
	return "compute_hourly"
}

// StorageHourly is one hour of storage size for a workspace volume.
type StorageHourly struct {
	ID                  string    `gorm:"primaryKey;type:text"`
	BatchID             *string   `gorm:"column:batch_id"`
	WorkspaceID         string    `gorm:"column:workspace_id;index"`
	StorageID           string    `gorm:"column:storage_id"`
	SizeBytes           *int64    `gorm:"column:size_bytes"`
	SizeGB              *float64  `gorm:"column:size_gb"`
	EndTime             time.Time `gorm:"column:end_time"`
	StripeUsageRecordID *string   `gorm:"column:stripe_usage_record_id"`
}

func (StorageHourly) TableName() string {
	return "storage_hourly"
}
