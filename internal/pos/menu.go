package pos

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/models"
)

var maxPrice = decimal.NewFromInt(10000)

type MenuItemInput struct {
	CategoryID uint
	Name       string
	Price      decimal.Decimal
}

func (in MenuItemInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return ValidationError{Field: "name", Message: "name is required"}
	case len(name) > 200:
		return ValidationError{Field: "name", Message: "name must be at most 200 characters"}
	case !in.Price.IsPositive():
		return ValidationError{Field: "price", Message: "price must be greater than zero"}
	case !in.Price.Equal(in.Price.Truncate(2)):
		return ValidationError{Field: "price", Message: "price must have at most 2 decimal places"}
	case in.Price.GreaterThanOrEqual(maxPrice):
		return ValidationError{Field: "price", Message: "price must be below 10000"}
	case in.CategoryID == 0:
		return ValidationError{Field: "category", Message: "category is required"}
	}
	return nil
}

// ListMenu returns categories by name, each with its items by name.
func (e *Engine) ListMenu(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := e.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("menu_items.name") }).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load menu")
	}
	return categories, nil
}

func (e *Engine) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ValidationError{Field: "name", Message: "name must be 1 to 100 characters"}
	}
	category := models.Category{Name: name}
	err := e.db.WithContext(ctx).Create(&category).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ValidationError{Field: "name", Message: "category already exists"}
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create category")
	}
	return &category, nil
}

// DeleteCategory removes the category together with its items.
func (e *Engine) DeleteCategory(ctx context.Context, categoryID uint) error {
	res := e.db.WithContext(ctx).Delete(&models.Category{}, categoryID)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to delete category")
	}
	if res.RowsAffected == 0 {
		return notFound("category %d", categoryID)
	}
	e.log.WithField("category_id", categoryID).Info("category deleted")
	return nil
}

func (e *Engine) GetMenuItem(ctx context.Context, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := e.db.WithContext(ctx).Preload("Category").First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("menu item %d", itemID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load menu item")
	}
	return &item, nil
}

func (e *Engine) requireCategory(db *gorm.DB, categoryID uint) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to load category")
	}
	if count == 0 {
		return notFound("category %d", categoryID)
	}
	return nil
}

func (e *Engine) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := e.db.WithContext(ctx)
	if err := e.requireCategory(db, in.CategoryID); err != nil {
		return nil, err
	}

	item := models.MenuItem{CategoryID: in.CategoryID, Name: strings.TrimSpace(in.Name), Price: in.Price}
	if err := db.Create(&item).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create menu item")
	}
	e.log.WithFields(log.Fields{"menu_item_id": item.ID, "name": item.Name}).Info("menu item created")
	return e.GetMenuItem(ctx, item.ID)
}

func (e *Engine) UpdateMenuItem(ctx context.Context, itemID uint, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := e.db.WithContext(ctx)
	if _, err := e.GetMenuItem(ctx, itemID); err != nil {
		return nil, err
	}
	if err := e.requireCategory(db, in.CategoryID); err != nil {
		return nil, err
	}

	err := db.Model(&models.MenuItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"category_id": in.CategoryID,
		"name":        strings.TrimSpace(in.Name),
		"price":       in.Price,
	}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update menu item")
	}
	return e.GetMenuItem(ctx, itemID)
}

// DeleteMenuItem removes the item and, through the foreign key, every order
// line that referenced it.
func (e *Engine) DeleteMenuItem(ctx context.Context, itemID uint) error {
	res := e.db.WithContext(ctx).Delete(&models.MenuItem{}, itemID)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "failed to delete menu item")
	}
	if res.RowsAffected == 0 {
		return notFound("menu item %d", itemID)
	}
	e.log.WithField("menu_item_id", itemID).Info("menu item deleted")
	return nil
}
