package service

import (
	"errors"
	"fmt"

	"github.com/Totarae/shortlink/internal/storage"
)

var (
	ErrMissingInput   = errors.New("missing input")
	ErrInvalidURL     = errors.New("invalid url format")
	ErrNotFound       = errors.New("short url not found")
	ErrCodeTaken      = errors.New("short url already exists")
	ErrNoData         = errors.New("no statistics available")
	ErrCodeGeneration = errors.New("failed to generate unique short url")
)

// storageError переводит ошибки хранилища в ошибки сервиса.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrDuplicateCode):
		return ErrCodeTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}
