package repository

import (
	"context"

	"dinehub/internal/domain/entity"
)

type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
}
