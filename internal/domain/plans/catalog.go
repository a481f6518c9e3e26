package plans

// Shape is an abstract resource SKU. Usage events and subscription items
// are joined through it.
type Shape string

const (
	ShapeCPUSmall  Shape = "cpu.small"
	ShapeCPUMedium Shape = "cpu.medium"
	ShapeCPULarge  Shape = "cpu.large"
	ShapeGPUA10    Shape = "gpu.a10"
	ShapeGPUA100   Shape = "gpu.a100"
	ShapeStorage   Shape = "storage"
)

// Metadata keys written on provider subscription items. The provider has no
// notion of shape or tier, so these tags are the join key back to the
// catalog.
const (
	MetadataShape       = "shape"
	MetadataTier        = "tier"
	MetadataWorkspaceID = "workspace_id"
)

// CatalogEntry is one line of the static catalog. Exactly one of Shape or
// Tier is set.
type CatalogEntry struct {
	Shape     Shape
	Tier      Tier
	TestPrice string
	LivePrice string
}

// Item is a catalog entry resolved for one billing mode.
type Item struct {
	Price    string            `json:"price"`
	Metadata map[string]string `json:"metadata"`
}

// Declaration order is the order items are submitted to the provider.
var catalog = []CatalogEntry{
	{Shape: ShapeCPUSmall, TestPrice: "price_test_cpu_small", LivePrice: "price_live_cpu_small"},
	{Shape: ShapeCPUMedium, TestPrice: "price_test_cpu_medium", LivePrice: "price_live_cpu_medium"},
	{Shape: ShapeCPULarge, TestPrice: "price_test_cpu_large", LivePrice: "price_live_cpu_large"},
	{Shape: ShapeGPUA10, TestPrice: "price_test_gpu_a10", LivePrice: "price_live_gpu_a10"},
	{Shape: ShapeGPUA100, TestPrice: "price_test_gpu_a100", LivePrice: "price_live_gpu_a100"},
	{Shape: ShapeStorage, TestPrice: "price_test_storage", LivePrice: "price_live_storage"},
	{Tier: TierBasic, TestPrice: "price_test_tier_basic", LivePrice: "price_live_tier_basic"},
	{Tier: TierStandard, TestPrice: "price_test_tier_standard", LivePrice: "price_live_tier_standard"},
	{Tier: TierEnterprise, TestPrice: "price_test_tier_enterprise", LivePrice: "price_live_tier_enterprise"},
}

func (e CatalogEntry) price(chargeable bool) string {
	if chargeable {
		return e.LivePrice
	}
	return e.TestPrice
}

func (e CatalogEntry) metadata() map[string]string {
	if e.Shape != "" {
		return map[string]string{MetadataShape: string(e.Shape)}
	}
	return map[string]string{MetadataTier: string(e.Tier)}
}

// ResolveCatalogItems returns every shape-tagged entry plus the entry for
// tier, priced for the given mode. A nil tier yields shape entries only.
func ResolveCatalogItems(chargeable bool, tier *Tier) []Item {
	items := make([]Item, 0, len(catalog))
	for _, e := range catalog {
		if e.Shape == "" && (tier == nil || e.Tier != *tier) {
			continue
		}
		items = append(items, Item{Price: e.price(chargeable), Metadata: e.metadata()})
	}
	return items
}

// KnownShape reports whether s is a catalog shape.
func KnownShape(s string) bool {
	for _, e := range catalog {
		if e.Shape != "" && string(e.Shape) == s {
			return true
		}
	}
	return false
}

// ShapeForItem reads the shape tag from subscription item metadata.
func ShapeForItem(metadata map[string]string) (Shape, bool) {
	s, ok := metadata[MetadataShape]
	if !ok || s == "" {
		return "", false
	}
	return Shape(s), true
}

// TierForItem reads the tier tag from subscription item metadata.
func TierForItem(metadata map[string]string) (Tier, bool) {
	return ParseTier(metadata[MetadataTier])
}
