package reactive

import (
	"errors"
	"fmt"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// ErrMissingKey is returned when reading or writing a property that has no
// reactive cell.
var ErrMissingKey = errors.New("reactive: missing key")

// ErrNotConfigurable is returned when declaring a reactive property over an
// existing property that cannot be redefined.
var ErrNotConfigurable = errors.New("reactive: property not configurable")

// ErrAlreadyAdministered is returned when a second administration is attached
// to a target. CreateAdministration is idempotent, so this only surfaces from
// direct misuse of Host.
var ErrAlreadyAdministered = errors.New("reactive: target already administered")

// ErrUnsupportedOperation is returned for operations a cell, view or
// administration does not support, such as freezing a dynamic view.
var ErrUnsupportedOperation = errors.New("reactive: unsupported operation")

// ErrInvalidKeyType is returned when a key is not a string, integer or *Symbol.
var ErrInvalidKeyType = errors.New("reactive: invalid key type")

// ErrNotWritable is returned when writing a computed property without a setter.
var ErrNotWritable = fmt.Errorf("%w: computed value is read-only", ErrUnsupportedOperation)

// ErrNotAdministered is returned when an operation needs an administration
// that has not been attached to the target yet.
var ErrNotAdministered = errors.New("reactive: target not administered")

func errMissingKey(object string, key PropertyKey) error {
	return rerrors.New("R001").WithObject(object, StringifyKey(key)).Wrap(ErrMissingKey)
}

func errNotConfigurable(object string, key PropertyKey) error {
	return rerrors.New("R002").WithObject(object, StringifyKey(key)).Wrap(ErrNotConfigurable)
}

func errAlreadyDeclared(object string, key PropertyKey) error {
	return rerrors.New("R010").WithObject(object, StringifyKey(key)).Wrap(ErrNotConfigurable)
}

func errUnsupported(object, detail string) error {
	return rerrors.New("R004").WithObject(object, "").WithDetail(detail).Wrap(ErrUnsupportedOperation)
}

func errInvalidKey(object string, key any) error {
	return rerrors.New("R005").
		WithObject(object, "").
		WithDetailf("Got key of type %T; dynamic views accept strings, integers and symbols.", key).
		Wrap(ErrInvalidKeyType)
}

func errNotWritable(name string) error {
	return rerrors.New("R006").WithObject(name, "").Wrap(ErrNotWritable)
}

func errSetterCycle(name string) error {
	return rerrors.New("R007").WithObject(name, "").Wrap(ErrUnsupportedOperation)
}

func errComputedCycle(name string) error {
	return rerrors.New("R011").WithObject(name, "").Wrap(ErrUnsupportedOperation)
}

func errNotAdministered(target any) error {
	return rerrors.New("R008").WithDetailf("Target of type %T has no administration.", target).Wrap(ErrNotAdministered)
}

func errNotExtensible(object string) error {
	return rerrors.New("R009").WithObject(object, "").Wrap(ErrUnsupportedOperation)
}

func errFireImmediately(object string) error {
	return rerrors.New("U001").WithObject(object, "").Wrap(ErrUnsupportedOperation)
}
