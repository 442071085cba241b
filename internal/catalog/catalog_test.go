package catalog_test

import (
	"testing"

	"github.com/colespa/colespa-api/internal/catalog"
)

func TestPackagePrices(t *testing.T) {
	want := map[string]int64{
		"esencial": 500,
		"integral": 1500,
		"premium":  2500,
	}
	for id, price := range want {
		got, currency, ok := catalog.PriceOf("package", id)
		if !ok {
			t.Fatalf("package %q not found", id)
		}
		if got != price {
			t.Errorf("package %q price = %d, want %d", id, got, price)
		}
		if currency != "EUR" {
			t.Errorf("package %q currency = %q, want EUR", id, currency)
		}
	}
}

func TestServicePrices(t *testing.T) {
	want := map[string]int64{
		"asesoria-inicial":     80,
		"tramite-nie":          150,
		"homologacion-titulos": 300,
		"busqueda-vivienda":    250,
	}
	for id, price := range want {
		got, _, ok := catalog.PriceOf("service", id)
		if !ok {
			t.Fatalf("service %q not found", id)
		}
		if got != price {
			t.Errorf("service %q price = %d, want %d", id, got, price)
		}
	}
}

func TestFindUnknown(t *testing.T) {
	if _, ok := catalog.Find("package", "inexistente"); ok {
		t.Error("unknown package id found")
	}
	if _, ok := catalog.Find("bundle", "integral"); ok {
		t.Error("unknown item type found")
	}
	if _, _, ok := catalog.PriceOf("service", ""); ok {
		t.Error("empty id priced")
	}
}

func TestPackagesCarryFeatures(t *testing.T) {
	for _, p := range catalog.Packages() {
		if len(p.Features) == 0 {
			t.Errorf("package %q has no feature list", p.ID)
		}
	}
	for _, s := range catalog.Services() {
		if s.Price <= 0 {
			t.Errorf("service %q has non-positive price", s.ID)
		}
	}
}
