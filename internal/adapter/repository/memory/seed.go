package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"localmart/internal/domain/entity"
)

// Seed is the fixture format accepted by SEED_FILE:
//
//	users:
//	  - {id: u1, name: Asha, role: customer}
//	products:
//	  - {id: p42, shopkeeper_id: u2, name: Kettle, price: 799}
type Seed struct {
	Users    []entity.User    `yaml:"users"`
	Products []entity.Product `yaml:"products"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply loads the fixtures into the given repositories.
func (s *Seed) Apply(users *UserRepository, products *ProductRepository) {
	for _, u := range s.Users {
		users.Put(u)
	}
	for _, p := range s.Products {
		products.Put(p)
	}
}
