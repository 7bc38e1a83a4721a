package provider

import "errors"

// ErrPermissionDenied reports that the store refused access. It is distinct
// from a missing row, which is an empty result, and from transport failures,
// which are returned as-is.
var ErrPermissionDenied = errors.New("calendar store: permission denied")
