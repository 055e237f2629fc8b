package service

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"product-catalog-api/internal/event"
	"product-catalog-api/internal/model"
	"product-catalog-api/pkg/apierror"
)

var (
	titlePattern       = regexp.MustCompile(`^.{3,50}$`)
	createPricePattern = regexp.MustCompile(`^(0|[1-9][0-9]*)(\.[0-9]+)?$`)
	updatePricePattern = regexp.MustCompile(`^[0-9]*\.?[0-9]+$`)
	countPattern       = regexp.MustCompile(`^[1-9][0-9]*$`)
	updateCountPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
)

type productStore interface {
	LoadAll() []model.Product
	Filter(filter model.ProductFilter) []model.Product
	GetByID(id int) (model.Product, error)
	Add(product model.Product) error
	Update(product model.Product) error
	Delete(id int) error
}

type ProductService struct {
	store productStore
	audit *AuditService
	bus   event.Bus
}

func NewProductService(store productStore, audit *AuditService, bus event.Bus) *ProductService {
	return &ProductService{store: store, audit: audit, bus: bus}
}

func (s *ProductService) List(filter model.ProductFilter) []model.Product {
	if filter.IsEmpty() {
		return s.store.LoadAll()
	}
	return s.store.Filter(filter)
}

func (s *ProductService) Get(id int) (model.Product, error) {
	product, err := s.store.GetByID(id)
	if err != nil {
		return model.Product{}, notFound(err, id)
	}
	return product, nil
}

func (s *ProductService) Create(product model.Product, actor model.AuditActor) (model.Product, error) {
	if err := validateNewProduct(product); err != nil {
		return model.Product{}, err
	}

	if err := s.store.Add(product); err != nil {
		s.audit.Log("product.create", actor, "failed", productResource(product.ID), nil, product, err.Error())
		return model.Product{}, err
	}

	s.audit.Log("product.create", actor, "success", productResource(product.ID), nil, product, "")
	s.publish(event.TypeProductCreated, product, actor)
	return product, nil
}

// Update merges the present fields of patch into the stored product.
func (s *ProductService) Update(id int, patch model.ProductUpdate, actor model.AuditActor) (model.Product, error) {
	if err := validatePatch(patch); err != nil {
		return model.Product{}, err
	}

	current, err := s.store.GetByID(id)
	if err != nil {
		return model.Product{}, notFound(err, id)
	}

	updated := current
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Price != nil {
		updated.Price = *patch.Price
	}
	if patch.Count != nil {
		updated.Rating.Count = *patch.Count
	}

	if err := s.store.Update(updated); err != nil {
		s.audit.Log("product.update", actor, "failed", productResource(id), current, updated, err.Error())
		return model.Product{}, err
	}

	s.audit.Log("product.update", actor, "success", productResource(id), current, updated, "")
	s.publish(event.TypeProductUpdated, updated, actor)
	return updated, nil
}

func (s *ProductService) Delete(id int, actor model.AuditActor) error {
	current, err := s.store.GetByID(id)
	if err != nil {
		return notFound(err, id)
	}

	if err := s.store.Delete(id); err != nil {
		s.audit.Log("product.delete", actor, "failed", productResource(id), current, nil, err.Error())
		return err
	}

	s.audit.Log("product.delete", actor, "success", productResource(id), current, nil, "")
	s.publish(event.TypeProductDeleted, map[string]int{"id": id}, actor)
	return nil
}

func (s *ProductService) publish(typ event.Type, payload any, actor model.AuditActor) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, payload, actor.Username))
}

func validateNewProduct(p model.Product) error {
	if !titlePattern.MatchString(p.Title) {
		return apierror.Validation("invalid product data", "title must be 3 to 50 characters")
	}
	if !createPricePattern.MatchString(formatNumber(p.Price)) {
		return apierror.Validation("invalid product data", "price must be a non-negative number")
	}
	if !countPattern.MatchString(strconv.Itoa(p.Rating.Count)) {
		return apierror.Validation("invalid product data", "rating.count must be a positive integer")
	}
	return nil
}

func validatePatch(patch model.ProductUpdate) error {
	if patch.Title != nil && !titlePattern.MatchString(*patch.Title) {
		return apierror.Validation("invalid title", "title must be 3 to 50 characters")
	}
	if patch.Price != nil && !updatePricePattern.MatchString(formatNumber(*patch.Price)) {
		return apierror.Validation("invalid price", "price must be a non-negative number")
	}
	if patch.Count != nil && !updateCountPattern.MatchString(strconv.Itoa(*patch.Count)) {
		return apierror.Validation("invalid count", "count must be a non-negative integer")
	}
	return nil
}

// formatNumber renders a float the way it would appear in JSON, without exponent.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func notFound(err error, id int) error {
	if errors.Is(err, model.ErrProductNotFound) {
		return apierror.Wrap(err, "NOT_FOUND", "product not found", strconv.Itoa(id), http.StatusNotFound)
	}
	return err
}

func productResource(id int) string {
	return fmt.Sprintf("product:%d", id)
}
