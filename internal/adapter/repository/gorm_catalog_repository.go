package repository

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"localmart/internal/domain/entity"
	"localmart/internal/domain/repository"
	"localmart/pkg/errors"
)

// userRow and productRow mirror the tables owned by the account and catalog services.
// Only the columns the chat core reads are mapped.
type userRow struct {
	ID        string `gorm:"primaryKey;size:128"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255;uniqueIndex"`
	Role      string `gorm:"size:32;not null;default:customer"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string {
	return "users"
}

type productRow struct {
	ID           string  `gorm:"primaryKey;size:128"`
	ShopkeeperID string  `gorm:"size:128;not null;index"`
	Name         string  `gorm:"size:255;not null"`
	Image        string  `gorm:"type:text"`
	Price        float64 `gorm:"not null;default:0"`
	Stock        int     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (productRow) TableName() string {
	return "products"
}

// AutoMigrate creates or updates every table the gorm repositories use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &productRow{}, &conversationRow{}, &messageRow{})
}

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	return &entity.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

type gormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) repository.ProductRepository {
	return &gormProductRepository{db: db}
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	return &entity.Product{
		ID:           row.ID,
		ShopkeeperID: row.ShopkeeperID,
		Name:         row.Name,
		Image:        row.Image,
		Price:        row.Price,
		Stock:        row.Stock,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
