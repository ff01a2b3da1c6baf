package seeder

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/happybuttons/orderflow/pkg/logger"
)

// CustomerProfile describes one synthetic customer used for generated orders
type CustomerProfile struct {
	Name             string   `yaml:"name"`
	Email            string   `yaml:"email"`
	OrderFrequency   float64  `yaml:"order_frequency"`    // selection weight
	PreferredSKUs    []string `yaml:"preferred_skus"`     // SKU prefixes
	TargetOrderValue float64  `yaml:"target_order_value"` // approximate order total
}

// Product is one catalog entry orders can be built from
type Product struct {
	SKU       string  `yaml:"sku"`
	Name      string  `yaml:"name"`
	UnitPrice float64 `yaml:"unit_price"`
}

// Catalog holds the customer and product profiles driving order generation
type Catalog struct {
	Customers []CustomerProfile `yaml:"customers"`
	Products  []Product         `yaml:"products"`
}

// LoadCatalog reads a catalog YAML file, falling back to the built-in
// default catalog when the file is missing or invalid so demos run with
// zero setup
func LoadCatalog(path string, log logger.Logger) *Catalog {
	data, err := os.ReadFile(path)

	if err != nil {
		log.Info("Seed catalog not readable, using built-in defaults", "path", path)
		return DefaultCatalog()
	}

	var catalog Catalog

	if err := yaml.Unmarshal(data, &catalog); err != nil {
		log.Warn("Seed catalog invalid, using built-in defaults", "path", path, "error", err)
		return DefaultCatalog()
	}

	if len(catalog.Customers) == 0 || len(catalog.Products) == 0 {
		log.Warn("Seed catalog incomplete, using built-in defaults", "path", path)
		return DefaultCatalog()
	}

	log.Info("Loaded seed catalog", "path", path,
		"customers", len(catalog.Customers),
		"products", len(catalog.Products))
	return &catalog
}

// ProductsForPrefixes returns the products whose SKU starts with one of the
// given prefixes; with no prefixes the full product list is returned
func (c *Catalog) ProductsForPrefixes(prefixes []string) []Product {
	if len(prefixes) == 0 {
		return c.Products
	}

	var matched []Product

	for _, product := range c.Products {
		for _, prefix := range prefixes {
			if strings.HasPrefix(product.SKU, prefix) {
				matched = append(matched, product)
				break
			}
		}
	}

	if len(matched) == 0 {
		return c.Products
	}

	return matched
}

// Validate checks the catalog for obviously broken entries
func (c *Catalog) Validate() error {
	for _, customer := range c.Customers {
		if customer.Email == "" {
			return fmt.Errorf("customer %q has no email", customer.Name)
		}
	}

	for _, product := range c.Products {
		if product.UnitPrice <= 0 {
			return fmt.Errorf("product %s has non-positive unit price", product.SKU)
		}
	}

	return nil
}

// DefaultCatalog returns the built-in Happy Buttons customer and product set
func DefaultCatalog() *Catalog {
	return &Catalog{
		Customers: []CustomerProfile{
			{
				Name:             "Royal Garments Ltd",
				Email:            "procurement@royalgarments.example",
				OrderFrequency:   3.0,
				PreferredSKUs:    []string{"ROY", "PRM"},
				TargetOrderValue: 4500,
			},
			{
				Name:             "Fashion Forward GmbH",
				Email:            "orders@fashionforward.example",
				OrderFrequency:   2.5,
				PreferredSKUs:    []string{"BTN", "PRM"},
				TargetOrderValue: 1800,
			},
			{
				Name:             "Nordic Outdoor Wear",
				Email:            "purchasing@nordicoutdoor.example",
				OrderFrequency:   2.0,
				PreferredSKUs:    []string{"BTN"},
				TargetOrderValue: 950,
			},
			{
				Name:             "Maison Bouton",
				Email:            "atelier@maisonbouton.example",
				OrderFrequency:   1.5,
				PreferredSKUs:    []string{"CST", "ROY"},
				TargetOrderValue: 7200,
			},
			{
				Name:             "Uniform Supply Co",
				Email:            "buyers@uniformsupply.example",
				OrderFrequency:   1.0,
				PreferredSKUs:    []string{"BTN", "CST"},
				TargetOrderValue: 12500,
			},
		},
		Products: []Product{
			{SKU: "BTN-001", Name: "Classic Round Button 12mm", UnitPrice: 2.50},
			{SKU: "BTN-002", Name: "Classic Round Button 18mm", UnitPrice: 3.10},
			{SKU: "BTN-003", Name: "Four-Hole Shirt Button", UnitPrice: 1.80},
			{SKU: "BTN-004", Name: "Toggle Button Wood", UnitPrice: 4.20},
			{SKU: "PRM-101", Name: "Premium Horn Button", UnitPrice: 8.90},
			{SKU: "PRM-102", Name: "Premium Mother-of-Pearl Button", UnitPrice: 12.40},
			{SKU: "ROY-201", Name: "Royal Crest Button Gold-Plated", UnitPrice: 24.00},
			{SKU: "ROY-202", Name: "Royal Crest Button Silver", UnitPrice: 18.50},
			{SKU: "CST-301", Name: "Custom Engraved Button", UnitPrice: 15.75},
			{SKU: "CST-302", Name: "Custom Enamel Button", UnitPrice: 19.90},
		},
	}
}
