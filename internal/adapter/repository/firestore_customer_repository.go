package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dinehub/internal/domain/entity"
	"dinehub/internal/domain/repository"
	"dinehub/pkg/errors"
)

type firestoreCustomerRepository struct {
	client *firestore.Client
}

func NewFirestoreCustomerRepository(client *firestore.Client) repository.CustomerRepository {
	return &firestoreCustomerRepository{
		client: client,
	}
}

func (r *firestoreCustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	doc, err := r.client.Collection("customers").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Customer", err)
		}
		return nil, errors.Internal("Failed to get customer", err)
	}

	var customer entity.Customer
	if err := doc.DataTo(&customer); err != nil {
		return nil, errors.Internal("Failed to parse customer data", err)
	}

	return &customer, nil
}
