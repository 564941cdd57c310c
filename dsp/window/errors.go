package window

import (
	"errors"
	"fmt"
)

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)

func errUnknownType(name string) error {
	return fmt.Errorf("unknown window type: %q", name)
}
