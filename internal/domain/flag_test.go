package domain_test

import (
	"testing"

	"blocks/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseLooseBool(t *testing.T) {
	tests := map[string]bool{
		"true":    true,
		"TRUE":    true,
		"1":       true,
		"-2.5":    true,
		`"yes"`:   true,
		"[0]":     true,
		"{}":      true,
		"false":   false,
		"0":       false,
		"null":    false,
		"":        false,
		`""`:      false,
		`"0"`:     false,
		"[]":      false,
		"yes":     false,
		"garbage": false,
	}
	for raw, want := range tests {
		assert.Equal(t, want, domain.ParseLooseBool(raw), "ParseLooseBool(%q)", raw)
	}
}
