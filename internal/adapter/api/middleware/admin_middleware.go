package middleware

import (
	"net/http"

	"dinehub/internal/domain/repository"

	"github.com/labstack/echo/v4"
)

type AdminMiddleware struct {
	customerRepo repository.CustomerRepository
}

func NewAdminMiddleware(customerRepo repository.CustomerRepository) *AdminMiddleware {
	return &AdminMiddleware{
		customerRepo: customerRepo,
	}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		customer, err := m.customerRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify admin privileges")
		}

		if customer.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}

		return next(c)
	}
}
