package store

import "errors"

// ErrRecordNotFound wraps GORM's not found error for consistency
var ErrRecordNotFound = errors.New("record not found")
