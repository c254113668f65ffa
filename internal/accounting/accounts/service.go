package accounts

import "context"

// Service reads a company's chart of accounts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Chart loads and indexes the company's chart of accounts.
func (s *Service) Chart(ctx context.Context, companyID int64) (*Chart, error) {
	list, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return NewChart(list)
}
