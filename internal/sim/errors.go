package sim

import (
	"errors"
	"fmt"
)

// ErrParameterBounds indicates a tunable outside its valid range.
var ErrParameterBounds = errors.New("sim: parameter out of valid bounds")

// ParamError names the rejected parameter.
type ParamError struct {
	Field string
	Value float64
	Rule  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%v: %s = %g, must be %s", ErrParameterBounds, e.Field, e.Value, e.Rule)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}
