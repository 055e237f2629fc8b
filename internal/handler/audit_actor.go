package handler

import (
	"net/http"

	"product-catalog-api/internal/middleware"
	"product-catalog-api/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{
		IP:        middleware.ClientIP(r),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actor.Username = claims.Username
	}

	return actor
}
