// Package catalog holds the static table of purchasable packages and
// services. It is configuration compiled into the binary: the server is the
// source of truth for prices, never client input.
package catalog

import "github.com/colespa/colespa-api/internal/domain"

var packages = []domain.CatalogItem{
	{
		ID:          "esencial",
		Type:        domain.ItemTypePackage,
		Name:        "Paquete Esencial",
		Description: "Acompañamiento básico para iniciar tu proceso de migración a España.",
		Price:       500,
		Currency:    "EUR",
		Features: []string{
			"Asesoría inicial personalizada",
			"Revisión de documentos",
			"Guía de visados y permisos",
		},
	},
	{
		ID:          "integral",
		Type:        domain.ItemTypePackage,
		Name:        "Paquete Integral",
		Description: "Gestión completa del proceso migratorio, desde la visa hasta la llegada.",
		Price:       1500,
		Currency:    "EUR",
		Features: []string{
			"Todo lo del Paquete Esencial",
			"Gestión de visado y NIE",
			"Búsqueda de vivienda",
			"Empadronamiento y alta sanitaria",
		},
	},
	{
		ID:          "premium",
		Type:        domain.ItemTypePackage,
		Name:        "Paquete Premium",
		Description: "Acompañamiento integral para familias, con soporte prioritario doce meses.",
		Price:       2500,
		Currency:    "EUR",
		Features: []string{
			"Todo lo del Paquete Integral",
			"Trámites para toda la familia",
			"Homologación de títulos",
			"Soporte prioritario 12 meses",
		},
	},
}

var services = []domain.CatalogItem{
	{
		ID:          "asesoria-inicial",
		Type:        domain.ItemTypeService,
		Name:        "Asesoría Inicial",
		Description: "Sesión de una hora para evaluar tu caso y trazar la ruta migratoria.",
		Price:       80,
		Currency:    "EUR",
	},
	{
		ID:          "tramite-nie",
		Type:        domain.ItemTypeService,
		Name:        "Trámite de NIE",
		Description: "Gestión de la cita y presentación de la solicitud del NIE.",
		Price:       150,
		Currency:    "EUR",
	},
	{
		ID:          "homologacion-titulos",
		Type:        domain.ItemTypeService,
		Name:        "Homologación de Títulos",
		Description: "Acompañamiento en la homologación de títulos universitarios colombianos.",
		Price:       300,
		Currency:    "EUR",
	},
	{
		ID:          "busqueda-vivienda",
		Type:        domain.ItemTypeService,
		Name:        "Búsqueda de Vivienda",
		Description: "Selección de inmuebles y acompañamiento en el contrato de arrendamiento.",
		Price:       250,
		Currency:    "EUR",
	},
}

// Packages returns the package tier table.
func Packages() []domain.CatalogItem {
	return packages
}

// Services returns the individual offering table.
func Services() []domain.CatalogItem {
	return services
}

// Find looks up a catalog item by type and id.
func Find(itemType, id string) (*domain.CatalogItem, bool) {
	var table []domain.CatalogItem
	switch itemType {
	case domain.ItemTypePackage:
		table = packages
	case domain.ItemTypeService:
		table = services
	default:
		return nil, false
	}
	for i := range table {
		if table[i].ID == id {
			return &table[i], true
		}
	}
	return nil, false
}

// PriceOf returns the configured price and currency for an item, or false if
// the item does not exist.
func PriceOf(itemType, id string) (int64, string, bool) {
	item, ok := Find(itemType, id)
	if !ok {
		return 0, "", false
	}
	return item.Price, item.Currency, true
}
