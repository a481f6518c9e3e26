package plans

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"billing-service/internal/domain/plans"
)

// CatalogResponse lists the items a workspace in the given mode and tier
// would be subscribed to.
type CatalogResponse struct {
	Chargeable bool         `json:"chargeable"`
	Tier       *plans.Tier  `json:"tier"`
	Tiers      []plans.Tier `json:"tiers"`
	Items      []plans.Item `json:"items"`
}

// ListCatalog serves GET /api/billing/catalog?chargeable=&tier=.
func ListCatalog(c *gin.Context) {
	chargeable := false
	if raw := c.Query("chargeable"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chargeable flag"})
			return
		}
		chargeable = v
	}

	var tier *plans.Tier
	if raw := c.Query("tier"); raw != "" {
		t, ok := plans.ParseTier(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier"})
			return
		}
		tier = &t
	}

	c.JSON(http.StatusOK, CatalogResponse{
		Chargeable: chargeable,
		Tier:       tier,
		Tiers:      plans.Tiers(),
		Items:      plans.ResolveCatalogItems(chargeable, tier),
	})
}
