// Package repository is the persistence layer: typed create, find, list and
// delete operations over users, food items and ratings, validated before they
// reach the database.
package repository

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

// Store is safe for concurrent use; it holds no state besides the connection pool.
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type listOptions struct {
	withRatings bool
}

type ListOption func(*listOptions)

// WithRatings eager-loads each item's ratings in a single batched query.
func WithRatings() ListOption {
	return func(o *listOptions) { o.withRatings = true }
}

func (s *Store) query(ctx context.Context, opts []ListOption) *gorm.DB {
	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}
	q := s.db.WithContext(ctx)
	if o.withRatings {
		q = q.Preload("Ratings", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		})
	}
	return q
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translate("ping", err)
	}
	return translate("ping", sqlDB.PingContext(ctx))
}

// ## Food items

func (s *Store) CreateItem(ctx context.Context, item *models.FoodItem) error {
	normalizeItem(item)
	if err := s.validateItem(item); err != nil {
		return err
	}
	return translate("create item", s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) FindItem(ctx context.Context, id uint, opts ...ListOption) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := s.query(ctx, opts).First(&item, id).Error; err != nil {
		return nil, translate("find item", err)
	}
	return &item, nil
}

// ListItems returns every item ordered by id. An empty table yields an empty slice.
func (s *Store) ListItems(ctx context.Context, opts ...ListOption) ([]models.FoodItem, error) {
	items := []models.FoodItem{}
	if err := s.query(ctx, opts).Order("id").Find(&items).Error; err != nil {
		return nil, translate("list items", err)
	}
	return items, nil
}

// DeleteItem removes the item and, in the same transaction, all of its ratings.
func (s *Store) DeleteItem(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("food_item_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.FoodItem{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return translate("delete item", err)
}

func normalizeItem(item *models.FoodItem) {
	item.Name = strings.TrimSpace(item.Name)
	item.Quantity = strings.TrimSpace(item.Quantity)
	item.Description = strings.TrimSpace(item.Description)
	item.Supplier = strings.TrimSpace(item.Supplier)
	item.ContactEmail = strings.TrimSpace(item.ContactEmail)
	item.ContactPhone = strings.TrimSpace(item.ContactPhone)
	item.Address = strings.TrimSpace(item.Address)
	roundNull(&item.Value, 2)
	roundNull(&item.Latitude, 8)
	roundNull(&item.Longitude, 8)
}

func roundNull(d *decimal.NullDecimal, places int32) {
	if d.Valid {
		d.Decimal = d.Decimal.Round(places)
	}
}

func (s *Store) validateItem(item *models.FoodItem) error {
	if err := s.validate.Struct(item); err != nil {
		return fromValidator(err)
	}
	if item.Value.Valid && item.Value.Decimal.IsNegative() {
		return &ValidationError{Field: "Value", Rule: "gte=0"}
	}
	if item.Latitude.Valid && item.Latitude.Decimal.Abs().GreaterThan(maxLatitude) {
		return &ValidationError{Field: "Latitude", Rule: "range=-90..90"}
	}
	if item.Longitude.Valid && item.Longitude.Decimal.Abs().GreaterThan(maxLongitude) {
		return &ValidationError{Field: "Longitude", Rule: "range=-180..180"}
	}
	return nil
}

// ## Ratings

// CreateRating stores a rating for an existing item. The item lookup and the
// insert share a transaction.
func (s *Store) CreateRating(ctx context.Context, itemID uint, value int) (*models.Rating, error) {
	rating := models.Rating{Value: value, FoodItemID: itemID}
	if err := s.validate.Struct(&rating); err != nil {
		return nil, fromValidator(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.FoodItem
		if err := tx.Select("id").First(&item, itemID).Error; err != nil {
			return err
		}
		return tx.Create(&rating).Error
	})
	if err != nil {
		return nil, translate("create rating", err)
	}
	return &rating, nil
}

func (s *Store) FindRating(ctx context.Context, id uint) (*models.Rating, error) {
	var rating models.Rating
	if err := s.db.WithContext(ctx).First(&rating, id).Error; err != nil {
		return nil, translate("find rating", err)
	}
	return &rating, nil
}

func (s *Store) ListRatings(ctx context.Context, itemID uint) ([]models.Rating, error) {
	ratings := []models.Rating{}
	err := s.db.WithContext(ctx).
		Where("food_item_id = ?", itemID).
		Order("id").
		Find(&ratings).
		Error
	if err != nil {
		return nil, translate("list ratings", err)
	}
	return ratings, nil
}

// ## Users

// CreateUser inserts a user whose Password already holds a bcrypt hash.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if err := s.validate.Struct(user); err != nil {
		return fromValidator(err)
	}
	if _, err := bcrypt.Cost([]byte(user.Password)); err != nil {
		return &ValidationError{Field: "Password", Rule: "bcrypt"}
	}
	return translate("create user", s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).
		Error
	if err != nil {
		return nil, translate("find user by email", err)
	}
	return &user, nil
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
