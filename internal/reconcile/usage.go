package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"billing-service/internal/domain/billing"
	"billing-service/internal/domain/plans"
	"billing-service/internal/domain/usage"
)

// ComputeEvent is one compute_hourly row as delivered by the usage pipeline.
type ComputeEvent struct {
	ID          string    `json:"id" binding:"required"`
	WorkspaceID string    `json:"workspace_id" binding:"required"`
	Shape       string    `json:"shape" binding:"required"`
	Usage       float64   `json:"usage" binding:"min=0"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

// StorageEvent is one storage_hourly row as delivered by the usage pipeline.
type StorageEvent struct {
	ID          string    `json:"id" binding:"required"`
	WorkspaceID string    `json:"workspace_id" binding:"required"`
	SizeGB      float64   `json:"size_gb" binding:"min=0"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

// UsageReport is the outcome of one usage submission. Replayed is true when
// the record id came from a previous report and no provider call was made.
type UsageReport struct {
	ID               string `json:"id"`
	SubscriptionItem string `json:"subscription_item,omitempty"`
	Quantity         int64  `json:"quantity"`
	Timestamp        int64  `json:"timestamp"`
	Replayed         bool   `json:"replayed"`
}

type usageSubmission struct {
	operation   string
	eventID     string
	workspaceID string
	shape       plans.Shape
	quantity    float64
	endTime     time.Time
	// row is the usage table model the record id is written back to.
	row any
}

// ReportCompute submits one hour of compute usage against the workspace's
// subscription item for the event's shape.
func (s *Service) ReportCompute(ctx context.Context, ev ComputeEvent) (*UsageReport, error) {
	if !plans.KnownShape(ev.Shape) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, ev.Shape)
	}
	return s.reportUsage(ctx, usageSubmission{
		operation:   billing.OperationReportCompute,
		eventID:     ev.ID,
		workspaceID: ev.WorkspaceID,
		shape:       plans.Shape(ev.Shape),
		quantity:    ev.Usage,
		endTime:     ev.EndTime,
		row:         &usage.ComputeHourly{},
	})
}

// ReportStorage submits one hour of storage usage in GB against the
// workspace's storage item.
func (s *Service) ReportStorage(ctx context.Context, ev StorageEvent) (*UsageReport, error) {
	return s.reportUsage(ctx, usageSubmission{
		operation:   billing.OperationReportStorage,
		eventID:     ev.ID,
		workspaceID: ev.WorkspaceID,
		shape:       plans.ShapeStorage,
		quantity:    ev.SizeGB,
		endTime:     ev.EndTime,
		row:         &usage.StorageHourly{},
	})
}

func (s *Service) reportUsage(ctx context.Context, in usageSubmission) (*UsageReport, error) {
	quantity := int64(math.Round(in.quantity))
	timestamp := in.endTime.Unix()

	if id, err := s.previousReport(ctx, in); err != nil {
		return nil, err
	} else if id != "" {
		usageReportsTotal.WithLabelValues(in.operation, "replayed").Inc()
		s.log.Debug("usage already reported",
			zap.String("operation", in.operation),
			zap.String("event_id", in.eventID),
			zap.String("usage_record_id", id),
		)
		return &UsageReport{ID: id, Quantity: quantity, Timestamp: timestamp, Replayed: true}, nil
	}

	ws, err := s.loadWorkspace(ctx, in.workspaceID)
	if err != nil {
		usageReportsTotal.WithLabelValues(in.operation, "precondition").Inc()
		return nil, err
	}
	if ws.SubscriptionID == nil || *ws.SubscriptionID == "" {
		usageReportsTotal.WithLabelValues(in.operation, "precondition").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNoSubscription, ws.ID)
	}

	client := s.clients.For(ws.Chargeable)
	sub, err := client.GetSubscription(ctx, *ws.SubscriptionID)
	if err != nil {
		usageReportsTotal.WithLabelValues(in.operation, "error").Inc()
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	item := subscriptionItemFor(sub, in.shape)
	if item == nil {
		usageReportsTotal.WithLabelValues(in.operation, "precondition").Inc()
		return nil, fmt.Errorf("%w: %s on %s", ErrNoSubscriptionItem, in.shape, sub.ID)
	}

	params := &stripe.UsageRecordParams{
		SubscriptionItem: stripe.String(item.ID),
		Quantity:         stripe.Int64(quantity),
		Timestamp:        stripe.Int64(timestamp),
	}
	params.SetIdempotencyKey(in.eventID)

	rec, err := client.CreateUsageRecord(ctx, params)
	if err != nil {
		usageReportsTotal.WithLabelValues(in.operation, "error").Inc()
		return nil, fmt.Errorf("create usage record: %w", err)
	}

	if err := s.recordReport(ctx, in, rec.ID); err != nil {
		// The provider already holds the record under the event id, so a
		// retry converges on the same record.
		usageReportsTotal.WithLabelValues(in.operation, "error").Inc()
		s.log.Error("usage record created but not persisted",
			zap.String("operation", in.operation),
			zap.String("event_id", in.eventID),
			zap.String("usage_record_id", rec.ID),
			zap.Error(err),
		)
		return nil, err
	}

	usageReportsTotal.WithLabelValues(in.operation, "ok").Inc()
	s.log.Info("usage reported",
		zap.String("operation", in.operation),
		zap.String("event_id", in.eventID),
		zap.String("workspace_id", ws.ID),
		zap.String("subscription_item", item.ID),
		zap.Int64("quantity", quantity),
	)
	return &UsageReport{
		ID:               rec.ID,
		SubscriptionItem: item.ID,
		Quantity:         quantity,
		Timestamp:        timestamp,
	}, nil
}

// previousReport returns the usage record id already stored for the event,
// either in the idempotency table or on the usage row itself.
func (s *Service) previousReport(ctx context.Context, in usageSubmission) (string, error) {
	var rec billing.IdempotencyRecord
	err := s.db.WithContext(ctx).
		Where("operation = ? AND key = ?", in.operation, in.eventID).
		First(&rec).Error
	switch {
	case err == nil:
		return rec.ResultID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("load idempotency record: %w", err)
	}

	var marker struct {
		StripeUsageRecordID *string
	}
	err = s.db.WithContext(ctx).
		Model(in.row).
		Select("stripe_usage_record_id").
		Where("id = ?", in.eventID).
		Take(&marker).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("load usage row %s: %w", in.eventID, err)
	}
	if marker.StripeUsageRecordID != nil {
		return *marker.StripeUsageRecordID, nil
	}
	return "", nil
}

// recordReport stores the idempotency entry and marks the usage row. The
// row is only written while its marker is still null, so an earlier report
// is never overwritten.
func (s *Service) recordReport(ctx context.Context, in usageSubmission, recordID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := billing.IdempotencyRecord{
			Operation: in.operation,
			Key:       in.eventID,
			ResultID:  recordID,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
			return fmt.Errorf("store idempotency record: %w", err)
		}
		if err := tx.Model(in.row).
			Where("id = ? AND stripe_usage_record_id IS NULL", in.eventID).
			Update("stripe_usage_record_id", recordID).Error; err != nil {
			return fmt.Errorf("mark usage row %s: %w", in.eventID, err)
		}
		return nil
	})
}

// subscriptionItemFor returns the item tagged with shape, or nil.
func subscriptionItemFor(sub *stripe.Subscription, shape plans.Shape) *stripe.SubscriptionItem {
	if sub.Items == nil {
		return nil
	}
	for _, item := range sub.Items.Data {
		if got, ok := plans.ShapeForItem(item.Metadata); ok && got == shape {
			return item
		}
	}
	return nil
}
