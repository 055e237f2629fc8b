package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"product-catalog-api/internal/model"
	"product-catalog-api/internal/storage"
)

var ErrNotLoaded = errors.New("product repository not loaded")

// ProductRepository keeps the catalog in memory and mirrors it to a JSON file
// after every mutation. The collection stays empty until Load is called.
type ProductRepository struct {
	file     *storage.JSONFile
	mu       sync.RWMutex
	products []model.Product
	loaded   bool
}

func NewProductRepository(file *storage.JSONFile) *ProductRepository {
	return &ProductRepository{file: file}
}

// Load reads the backing file once. Later calls are no-ops, so edits made to the
// file by other processes are not seen until restart.
func (r *ProductRepository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}

	var products []model.Product
	if err := r.file.Read(&products); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	r.products = products
	r.loaded = true
	slog.Info("products loaded", "count", len(products), "file", r.file.Path())
	return nil
}

func (r *ProductRepository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// LoadAll returns a copy of the collection in file order.
func (r *ProductRepository) LoadAll() []model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, len(r.products))
	copy(out, r.products)
	return out
}

func (r *ProductRepository) Filter(filter model.ProductFilter) []model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, 0, len(r.products))
	for _, product := range r.products {
		if filter.Matches(product) {
			out = append(out, product)
		}
	}
	return out
}

// GetByID returns the first product with the given id.
func (r *ProductRepository) GetByID(id int) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if product.ID == id {
			return product, nil
		}
	}
	return model.Product{}, model.ErrProductNotFound
}

// Add appends without checking for an existing id.
func (r *ProductRepository) Add(product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}

	r.products = append(r.products, product)
	return r.saveLocked()
}

// Update replaces the first product sharing product.ID. Unknown ids are ignored
// and the file is left untouched.
func (r *ProductRepository) Update(product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}

	for i := range r.products {
		if r.products[i].ID == product.ID {
			r.products[i] = product
			return r.saveLocked()
		}
	}
	return nil
}

// Delete removes every product with the given id and always rewrites the file.
func (r *ProductRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return ErrNotLoaded
	}

	kept := r.products[:0:0]
	for _, product := range r.products {
		if product.ID != id {
			kept = append(kept, product)
		}
	}
	r.products = kept
	return r.saveLocked()
}

func (r *ProductRepository) saveLocked() error {
	products := r.products
	if products == nil {
		products = []model.Product{}
	}

	if err := r.file.Write(products); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	return nil
}
