package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"product-catalog-api/internal/model"
	"product-catalog-api/internal/service"
	"product-catalog-api/pkg/apierror"
)

type ProductHandler struct {
	service *service.ProductService
}

func NewProductHandler(service *service.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.List(filter), nil)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.Product
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Create(payload, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, product, nil)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch model.ProductUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Update(id, patch, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(id, actorFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func productID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.Validation("product id must be an integer", raw)
	}
	return id, nil
}

// parseProductFilter reads minPrice, maxPrice, minStock and maxStock. minCount and
// maxCount are accepted for the stock bounds too.
func parseProductFilter(query url.Values) (model.ProductFilter, error) {
	var (
		filter model.ProductFilter
		err    error
	)

	if filter.MinPrice, err = floatParam(query, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = floatParam(query, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.MinCount, err = intParam(query, "minStock", "minCount"); err != nil {
		return filter, err
	}
	if filter.MaxCount, err = intParam(query, "maxStock", "maxCount"); err != nil {
		return filter, err
	}

	return filter, nil
}

func floatParam(query url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apierror.Validation("invalid query parameter", name+" must be a number")
	}
	return &v, nil
}

func intParam(query url.Values, names ...string) (*int, error) {
	for _, name := range names {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apierror.Validation("invalid query parameter", name+" must be an integer")
		}
		return &v, nil
	}
	return nil, nil
}
