package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrWorkerNotFound    = errors.New("worker not found")
	ErrWorkerExists      = errors.New("worker already exists")

	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrStockDrift              = errors.New("warehouse stock does not cover product total")
	ErrNotPartOfOrder          = errors.New("product is not part of this order in this warehouse")
	ErrAlreadyFullyPicked      = errors.New("item already fully picked for this warehouse")
	ErrItemNotFoundInWarehouse = errors.New("item not found in this warehouse")
	ErrUnitAlreadyPicked       = errors.New("unit already picked")
	ErrOrderCompleted          = errors.New("order already completed")
)

// ValidationError возвращается до открытия транзакции, когда вход некорректен.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
