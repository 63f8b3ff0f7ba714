package db

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/auth"
	"github.com/gastrogenius/restaurant-pos/models"
)

const (
	seedPassword = "password123"
	seedTables   = 10
)

var seedUsers = []struct {
	Username string
	Role     models.Role
}{
	{"manager", models.RoleManager},
	{"waiter", models.RoleWaiter},
	{"kitchen", models.RoleKitchen},
}

var seedMenu = []struct {
	Category string
	Items    []string
}{
	{"Starter", []string{"Paneer Chilly", "Veg Manchurian", "Crispy Corn"}},
	{"Drink", []string{"Cold Coffee", "Fresh Lime Soda", "Lassi", "Water"}},
	{"Breads", []string{"Roti", "Butter Roti", "Naan", "Garlic Naan"}},
	{"Rice", []string{"Jeera Rice", "Steamed Rice", "Veg Biryani"}},
	{"Dal", []string{"Dal Fry", "Dal Tadka", "Dal Makhani"}},
	{"Main Course", []string{"Paneer Bhurji", "Paneer Butter Masala", "Mix Veg", "Malai Kofta"}},
}

// seedPrice picks a demo price from keywords in the item name; first match wins.
func seedPrice(name string) decimal.Decimal {
	rules := []struct {
		keyword string
		price   int64
	}{
		{"Paneer", 250},
		{"Dal", 180},
		{"Roti", 20},
		{"Naan", 40},
		{"Rice", 150},
		{"Coffee", 120},
	}
	for _, r := range rules {
		if strings.Contains(name, r.keyword) {
			return decimal.NewFromInt(r.price)
		}
	}
	return decimal.NewFromInt(100)
}

// Seed inserts the demo users, menu and tables. Existing rows are left alone,
// so running it twice is harmless.
func Seed(conn *gorm.DB, logger log.FieldLogger) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		for _, u := range seedUsers {
			var count int64
			if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
				return errors.Wrap(err, "failed to look up user")
			}
			if count > 0 {
				continue
			}
			hash, err := auth.HashPassword(seedPassword)
			if err != nil {
				return err
			}
			if err := tx.Create(&models.User{Username: u.Username, PasswordHash: hash, Role: u.Role}).Error; err != nil {
				return errors.Wrapf(err, "failed to create user %s", u.Username)
			}
			logger.WithFields(log.Fields{"username": u.Username, "role": u.Role}).Info("created user")
		}

		for _, group := range seedMenu {
			category := models.Category{Name: group.Category}
			if err := tx.Where(models.Category{Name: group.Category}).FirstOrCreate(&category).Error; err != nil {
				return errors.Wrapf(err, "failed to create category %s", group.Category)
			}
			for _, name := range group.Items {
				item := models.MenuItem{CategoryID: category.ID, Name: name, Price: seedPrice(name)}
				err := tx.Where("category_id = ? AND name = ?", category.ID, name).FirstOrCreate(&item).Error
				if err != nil {
					return errors.Wrapf(err, "failed to create menu item %s", name)
				}
			}
		}
		logger.WithField("categories", len(seedMenu)).Info("seeded menu")

		for n := 1; n <= seedTables; n++ {
			table := models.Table{}
			if err := tx.Where(models.Table{Number: n}).FirstOrCreate(&table).Error; err != nil {
				return errors.Wrapf(err, "failed to create table %d", n)
			}
		}
		logger.WithField("tables", seedTables).Info("seeded tables")
		return nil
	})
}
