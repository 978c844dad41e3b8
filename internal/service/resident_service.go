package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/repository"
)

// ResidentService exposes the building directory used to resolve
// participant display identities and to pick recipients.
type ResidentService struct {
	residentRepo repository.ResidentRepository
}

func NewResidentService(residentRepo repository.ResidentRepository) *ResidentService {
	return &ResidentService{residentRepo: residentRepo}
}

func (s *ResidentService) Get(ctx context.Context, id uuid.UUID) (*domain.Resident, error) {
	resident, err := s.residentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resident == nil {
		return nil, ErrResidentNotFound
	}
	return resident, nil
}

func (s *ResidentService) List(ctx context.Context, query string) ([]domain.Resident, error) {
	query = strings.TrimSpace(query)

	var residents []domain.Resident
	var err error
	if query == "" {
		residents, err = s.residentRepo.List(ctx)
	} else {
		residents, err = s.residentRepo.Search(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	if residents == nil {
		residents = []domain.Resident{}
	}
	return residents, nil
}
