package memory

import (
	"fmt"
	"time"

	"mobile-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var defaultCategories = []domain.CategoryInfo{
	{Name: domain.CategoryPhones, DisplayName: "Phones", Serialized: true},
	{Name: domain.CategoryFeaturedPhone, DisplayName: "Featured Phones", Serialized: true},
	{Name: domain.CategoryButtonPhone, DisplayName: "Button Phones", Serialized: true},
	{Name: domain.CategoryAccessories, DisplayName: "Accessories"},
	{Name: domain.CategoryCases, DisplayName: "Cases & Covers"},
	{Name: domain.CategoryChargers, DisplayName: "Chargers & Cables"},
	{Name: domain.CategoryTablets, DisplayName: "Tablets"},
	{Name: domain.CategorySmartWatches, DisplayName: "Smart Watches"},
}

func seedCategories(st *state) {
	now := time.Now().UTC()
	for _, c := range defaultCategories {
		c.ID = uuid.New()
		c.CreatedAt = now
		st.categories[c.Name] = c
	}
}

type sampleItem struct {
	name, brand, sku, description string
	category                      domain.Category
	price, cost                   string
	stock, minStock               int
	specs                         domain.Specifications
	serials                       []string
}

var sampleItems = []sampleItem{
	{
		name: "iPhone 15 Pro", brand: "Apple", sku: "APL-IP15P-128", category: domain.CategoryPhones,
		price: "999.99", cost: "850.00", stock: 15, minStock: 5,
		description: "Latest iPhone with A17 Pro chip and titanium design",
		specs:       domain.Specifications{Phone: &domain.PhoneSpecs{Storage: "128GB", Color: "Natural Titanium", Display: "6.1 inch"}},
		serials:     []string{"356789101234561", "356789101234579", "356789101234587"},
	},
	{
		name: "Galaxy S24 Ultra", brand: "Samsung", sku: "SAM-GS24U-256", category: domain.CategoryPhones,
		price: "1199.99", cost: "1000.00", stock: 8, minStock: 3,
		description: "Premium Samsung flagship with S Pen and AI features",
		specs:       domain.Specifications{Phone: &domain.PhoneSpecs{Storage: "256GB", Color: "Titanium Black", Display: "6.8 inch"}},
		serials:     []string{"352099001761481", "352099001761499"},
	},
	{
		name: "AirPods Pro (2nd Gen)", brand: "Apple", sku: "APL-APP-GEN2", category: domain.CategoryAccessories,
		price: "249.99", cost: "180.00", stock: 25, minStock: 10,
		description: "Wireless earbuds with active noise cancellation",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Battery: "30 hours", Features: "ANC, Spatial Audio"}},
	},
	{
		name: "iPhone 15 Silicone Case", brand: "Apple", sku: "APL-IP15-CASE-BLK", category: domain.CategoryCases,
		price: "49.99", cost: "25.00", stock: 2, minStock: 20,
		description: "Official Apple silicone case for iPhone 15",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Material: "Silicone", Color: "Black"}},
	},
	{
		name: "Galaxy Buds Pro", brand: "Samsung", sku: "SAM-GBP-WHT", category: domain.CategoryAccessories,
		price: "199.99", cost: "140.00", stock: 12, minStock: 8,
		description: "Premium wireless earbuds with ANC",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Battery: "28 hours", Features: "ANC, 360 Audio"}},
	},
	{
		name: "iPad Air (5th Gen)", brand: "Apple", sku: "APL-IPAD-AIR5-64", category: domain.CategoryTablets,
		price: "599.99", cost: "480.00", stock: 0, minStock: 5,
		description: "Powerful iPad with M1 chip",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Color: "Space Gray", Size: "10.9 inch", Features: "64GB"}},
	},
	{
		name: "Apple Watch Series 9", brand: "Apple", sku: "APL-AW9-45MM", category: domain.CategorySmartWatches,
		price: "429.99", cost: "350.00", stock: 18, minStock: 6,
		description: "Advanced smartwatch with health monitoring",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Size: "45mm", Color: "Midnight", Features: "GPS, Cellular"}},
	},
	{
		name: "USB-C Fast Charger", brand: "Apple", sku: "APL-USBC-20W", category: domain.CategoryChargers,
		price: "19.99", cost: "12.00", stock: 45, minStock: 25,
		description: "20W USB-C power adapter",
		specs:       domain.Specifications{General: &domain.GeneralSpecs{Power: "20W", Connector: "USB-C"}},
	},
}

// NewSeeded creates a store holding the demo catalog, its phone serials and
// one admin and one user account.
func NewSeeded(adminPassword, userPassword string) (*Store, error) {
	s := New()
	now := time.Now().UTC()

	for i, sample := range sampleItems {
		created := now.Add(-time.Duration(len(sampleItems)-i) * time.Minute)
		item := domain.CatalogItem{
			ID:             uuid.New(),
			Name:           sample.name,
			Brand:          sample.brand,
			Category:       sample.category,
			SKU:            sample.sku,
			Price:          decimal.RequireFromString(sample.price),
			CostPrice:      decimal.RequireFromString(sample.cost),
			StockQuantity:  sample.stock,
			MinStockLevel:  sample.minStock,
			Description:    sample.description,
			Specifications: sample.specs,
			Status:         domain.StatusActive,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		item.SyncStockStatus()
		s.st.items[item.ID] = item

		for j, serial := range sample.serials {
			unit := domain.SerialUnit{
				ID:            uuid.New(),
				CatalogItemID: item.ID,
				Serial:        serial,
				CreatedAt:     created.Add(time.Duration(j) * time.Second),
			}
			s.st.serials[unit.ID] = unit
		}
	}

	for _, account := range []struct {
		username, password, display, role string
	}{
		{"admin", adminPassword, "Shop Admin", domain.RoleAdmin},
		{"user", userPassword, "Counter Staff", domain.RoleUser},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash seed password for %s: %w", account.username, err)
		}
		staff := domain.Staff{
			ID:           uuid.New(),
			Username:     account.username,
			PasswordHash: string(hash),
			DisplayName:  account.display,
			Role:         account.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.st.staff[staff.ID] = staff
	}

	return s, nil
}
