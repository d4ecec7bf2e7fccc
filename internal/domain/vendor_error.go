package domain

import (
	"errors"
	"fmt"
)

// VendorUnavailableError reports a transport or HTTP-level failure talking to an
// external vendor. No vendor payload could be parsed.
type VendorUnavailableError struct {
	Vendor     string
	StatusCode int // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *VendorUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Vendor, e.Err)
	}
	return fmt.Sprintf("%s unavailable: http %d: %s", e.Vendor, e.StatusCode, e.Body)
}

func (e *VendorUnavailableError) Unwrap() error { return e.Err }

// VendorRejectedError reports a parsed vendor envelope carrying a non-success code.
type VendorRejectedError struct {
	Vendor  string
	Code    int
	Message string
}

func (e *VendorRejectedError) Error() string {
	return fmt.Sprintf("%s rejected request: code=%d message=%s", e.Vendor, e.Code, e.Message)
}

// IsVendorError reports whether err is one of the two vendor failure classes.
func IsVendorError(err error) bool {
	var unavailable *VendorUnavailableError
	var rejected *VendorRejectedError
	return errors.As(err, &unavailable) || errors.As(err, &rejected)
}
