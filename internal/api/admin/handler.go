package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"billing-service/internal/domain/access"
	"billing-service/internal/domain/usage"
	"billing-service/internal/domain/workspaces"
)

type AdminWorkspace struct {
	ID                    string    `json:"id"`
	DisplayName           *string   `json:"display_name,omitempty"`
	Chargeable            bool      `json:"chargeable"`
	Tier                  *string   `json:"tier,omitempty"`
	Status                *string   `json:"status,omitempty"`
	Access                string    `json:"access"`
	ConsumerID            *string   `json:"consumer_id,omitempty"`
	SubscriptionID        *string   `json:"subscription_id,omitempty"`
	CouponID              *string   `json:"coupon_id,omitempty"`
	PaymentMethodAttached bool      `json:"payment_method_attached"`
	Version               int64     `json:"version"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type AdminStats struct {
	TotalWorkspaces       int            `json:"total_workspaces"`
	Provisioned           int            `json:"provisioned"`
	WorkspacesPerStatus   map[string]int `json:"workspaces_per_status"`
	WorkspacesPerTier     map[string]int `json:"workspaces_per_tier"`
	UnreportedComputeRows int64          `json:"unreported_compute_rows"`
	UnreportedStorageRows int64          `json:"unreported_storage_rows"`
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func toAdminWorkspace(ws workspaces.Workspace) AdminWorkspace {
	out := AdminWorkspace{
		ID:                    ws.ID,
		DisplayName:           ws.DisplayName,
		Chargeable:            ws.Chargeable,
		Status:                ws.Status,
		Access:                string(access.ForWorkspace(ws)),
		ConsumerID:            ws.ConsumerID,
		SubscriptionID:        ws.SubscriptionID,
		CouponID:              ws.CouponID,
		PaymentMethodAttached: ws.PaymentMethodAttached,
		Version:               ws.Version,
		UpdatedAt:             ws.UpdatedAt,
	}
	if ws.Tier != nil {
		t := string(*ws.Tier)
		out.Tier = &t
	}
	return out
}

func (h *Handler) ListWorkspaces(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("id ASC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var list []workspaces.Workspace
	if err := q.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspaces"})
		return
	}

	result := make([]AdminWorkspace, 0, len(list))
	for _, ws := range list {
		result = append(result, toAdminWorkspace(ws))
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetWorkspaceDetails(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var ws workspaces.Workspace
	if err := h.db.WithContext(ctx).First(&ws, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspace"})
		return
	}

	var compute []usage.ComputeHourly
	if err := h.db.WithContext(ctx).
		Where("workspace_id = ?", id).
		Order("end_time DESC").
		Limit(50).
		Find(&compute).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch usage"})
		return
	}

	var storage []usage.StorageHourly
	if err := h.db.WithContext(ctx).
		Where("workspace_id = ?", id).
		Order("end_time DESC").
		Limit(50).
		Find(&storage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace": toAdminWorkspace(ws),
		"compute":   compute,
		"storage":   storage,
	})
}

func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	var list []workspaces.Workspace
	if err := h.db.WithContext(ctx).Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspaces"})
		return
	}

	stats := AdminStats{
		TotalWorkspaces:     len(list),
		WorkspacesPerStatus: map[string]int{},
		WorkspacesPerTier:   map[string]int{},
	}
	for _, ws := range list {
		if ws.Provisioned() {
			stats.Provisioned++
		}
		status := "none"
		if ws.Status != nil {
			status = *ws.Status
		}
		stats.WorkspacesPerStatus[status]++

		tier := "No Tier"
		if ws.Tier != nil {
			tier = string(*ws.Tier)
		}
		stats.WorkspacesPerTier[tier]++
	}

	if err := h.db.WithContext(ctx).Model(&usage.ComputeHourly{}).
		Where("stripe_usage_record_id IS NULL").
		Count(&stats.UnreportedComputeRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count usage"})
		return
	}
	if err := h.db.WithContext(ctx).Model(&usage.StorageHourly{}).
		Where("stripe_usage_record_id IS NULL").
		Count(&stats.UnreportedStorageRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count usage"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
