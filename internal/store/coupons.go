package store

import (
	"context"
	"database/sql"
	"errors"

	"sweetshop-backend/internal/models"
)

// ErrCouponNotFound is returned when no coupon exists for the given code.
var ErrCouponNotFound = errors.New("coupon not found")

// GetCouponByCode retrieves a coupon by its code
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon,
		"SELECT * FROM coupons WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementCouponUsage bumps the coupon's usage counter
func (s *Store) IncrementCouponUsage(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE coupons SET used_count = used_count + 1 WHERE code = $1", code)
	return err
}
