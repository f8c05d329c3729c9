package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound aliases gorm's sentinel so services need not import gorm to check it.
var ErrNotFound = gorm.ErrRecordNotFound

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
