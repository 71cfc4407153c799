package money

import "errors"

var (
	// ErrInvalidAmount is returned when a string is not a base-10 number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDivisionByZero is returned by Div when the divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
)
