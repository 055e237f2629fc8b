package handler

import (
	"net/http"

	"product-catalog-api/internal/middleware"
	"product-catalog-api/internal/model"
	"product-catalog-api/internal/service"
	"product-catalog-api/pkg/apierror"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

// Me returns the profile of the token's user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Wrap(model.ErrInvalidToken, "UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	user, err := h.service.Profile(claims.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}
