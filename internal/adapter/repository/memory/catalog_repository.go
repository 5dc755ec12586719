package memory

import (
	"context"
	"sync"

	"localmart/internal/domain/entity"
	"localmart/pkg/errors"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

func NewUserRepository(users ...entity.User) *UserRepository {
	r := &UserRepository{users: make(map[string]entity.User)}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

func (r *UserRepository) Put(user entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return &user, nil
}

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]entity.Product
}

func NewProductRepository(products ...entity.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]entity.Product)}
	for _, p := range products {
		r.Put(p)
	}
	return r
}

func (r *ProductRepository) Put(product entity.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	return &product, nil
}
