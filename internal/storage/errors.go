package storage

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicate           = errors.New("duplicate")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrWatermarkRegression = errors.New("watermark cannot move backwards")
)

// mapError translates SQLite constraint failures into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return errors.Join(ErrDuplicate, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return errors.Join(ErrConstraintViolation, err)
	}
	return err
}
