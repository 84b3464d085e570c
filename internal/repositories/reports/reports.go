package reports

import (
	"context"

	"github.com/orgball2608/postview/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=reports.go -destination=mocks/mock.go

// Repository appends to the reports table. Reports are never updated.
type Repository interface {
	Create(ctx context.Context, report domain.Report) error
}
