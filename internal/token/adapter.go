package token

import (
	"ledgerline/pkg/platform/middleware/auth"
)

// ServiceAdapter exposes the token service through the auth middleware's
// validator interface.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) Validate(tokenString string) (*auth.Claims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{
		TenantID: claims.TenantID,
		Actor:    claims.Actor,
	}, nil
}
