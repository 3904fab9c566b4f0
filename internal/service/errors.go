package service

import "errors"

var (
	ErrVariantNotFound   = errors.New("variant not found")
	ErrItemsRequired     = errors.New("items required")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("illegal order status transition")
)
