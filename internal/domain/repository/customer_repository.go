package repository

import (
	"context"

	"dinehub/internal/domain/entity"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
