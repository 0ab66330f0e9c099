package service

import (
	"context"

	"ticket-office/internal/auth/oauth"
	"ticket-office/internal/entity"
)

// DeviceFlowService drives the OAuth device flow for clients that cannot
// open a browser redirect, such as box-office terminals.
type DeviceFlowService interface {
	Begin(ctx context.Context, provider string) (map[string]interface{}, error)
	Poll(ctx context.Context, provider, deviceCode string) (string, error)
}

type deviceFlowService struct {
	providers map[string]oauth.Provider
}

func NewDeviceFlowService(providers map[string]oauth.Provider) DeviceFlowService {
	return &deviceFlowService{providers: providers}
}

func (s *deviceFlowService) Begin(ctx context.Context, provider string) (map[string]interface{}, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, entity.ErrInvalidRequest
	}
	return p.BeginDeviceFlow(ctx)
}

func (s *deviceFlowService) Poll(ctx context.Context, provider, deviceCode string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", entity.ErrInvalidRequest
	}
	return p.PollForToken(ctx, deviceCode)
}
