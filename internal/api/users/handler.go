package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"billing-service/internal/domain/workspaces"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GetCurrentUser returns the session's identity and the billing state of
// every workspace it belongs to.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ids := c.GetStringSlice("workspace_ids")

	list := []workspaces.Workspace{}
	if len(ids) > 0 {
		if err := h.db.WithContext(c.Request.Context()).
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspaces"})
			return
		}
	}

	resp := MeResponse{
		User: UserDTO{
			ID:    c.GetString("user_id"),
			Email: c.GetString("email"),
			Role:  c.GetString("role"),
		},
		Workspaces: make([]WorkspaceDTO, 0, len(list)),
	}
	for _, ws := range list {
		resp.Workspaces = append(resp.Workspaces, BuildWorkspaceDTO(ws))
	}

	c.JSON(http.StatusOK, resp)
}
