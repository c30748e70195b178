package service

import (
	"errors"

	"fitcommunity/internal/domain"

	"gorm.io/gorm"
)

// lookupErr turns a missing row into a NotFound error and passes anything else through.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(what + " not found")
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
