package util

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Alphabet символы короткого кода.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength длина кода по умолчанию.
const DefaultCodeLength = 6

// байты >= maxByte отбрасываются, иначе первые символы алфавита выпадали бы чаще
const maxByte = 256 - 256%len(Alphabet)

// CodeGenerator генерирует случайные коды из Alphabet.
type CodeGenerator struct {
	rand   io.Reader
	length int
}

// NewCodeGenerator создаёт генератор. nil-источник заменяется на crypto/rand.
func NewCodeGenerator(r io.Reader, length int) *CodeGenerator {
	if r == nil {
		r = rand.Reader
	}
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{rand: r, length: length}
}

// Generate возвращает новый код длины length.
func (g *CodeGenerator) Generate() (string, error) {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length)

	for len(code) < g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			code = append(code, Alphabet[int(b)%len(Alphabet)])
			if len(code) == g.length {
				break
			}
		}
	}
	return string(code), nil
}
