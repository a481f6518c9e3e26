package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// CtxWorkspaceID holds the workspace a session request operates on.
const CtxWorkspaceID = "workspace_id"

// RequireWorkspaceAccess checks that the workspace_id in the JSON body is one
// of the caller's workspaces. Admins may act on any workspace. The body is
// cached on the context, so handlers must bind with ShouldBindBodyWith.
func RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			WorkspaceID string `json:"workspace_id"`
		}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.WorkspaceID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid workspace_id"})
			return
		}

		allowed := c.GetString(CtxRole) == "admin" ||
			slices.Contains(c.GetStringSlice(CtxWorkspaceIDs), body.WorkspaceID)
		if !allowed {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You are not authorized to call this API"})
			return
		}

		c.Set(CtxWorkspaceID, body.WorkspaceID)
		c.Next()
	}
}
