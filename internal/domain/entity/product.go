package entity

import "time"

// Product is owned by the catalog; ShopkeeperID is the seller side of any conversation about it.
type Product struct {
	ID           string    `json:"id" firestore:"id" yaml:"id"`
	ShopkeeperID string    `json:"shopkeeper_id" firestore:"shopkeeperId" yaml:"shopkeeper_id"`
	Name         string    `json:"name" firestore:"name" yaml:"name"`
	Image        string    `json:"image" firestore:"image" yaml:"image"`
	Price        float64   `json:"price" firestore:"price" yaml:"price"`
	Stock        int       `json:"stock" firestore:"stock" yaml:"stock"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt" yaml:"-"`
}

type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image string  `json:"image"`
	Price float64 `json:"price"`
}

func (p *Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Image: p.Image, Price: p.Price}
}
