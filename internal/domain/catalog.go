package domain

// Catalog item types.
const (
	ItemTypePackage = "package"
	ItemTypeService = "service"
)

// CatalogItem is a purchasable package (bundle) or service (individual
// offering) from the static configuration table. Immutable at runtime;
// changing prices requires a deployment.
type CatalogItem struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"` // whole EUR
	Currency    string   `json:"currency"`
	Features    []string `json:"features,omitempty"` // packages only
}
