package lir

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes p in msgpack form for a downstream emitter.
func Encode(w io.Writer, p *Program) error {
	if err := msgpack.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("encode LIR: %w", err)
	}
	return nil
}

// Decode reads a program written by Encode.
func Decode(r io.Reader) (*Program, error) {
	var p Program
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode LIR: %w", err)
	}
	return &p, nil
}
