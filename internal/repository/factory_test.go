package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGormDB_UnsupportedType(t *testing.T) {
	_, err := NewGormDB(&DBConfig{Type: "unsupported"})
	assert.Error(t, err)
}

func TestNewGormDB_RejectsBeforeDialingOnUnsupportedType(t *testing.T) {
	// Host/port left empty: if NewGormDB attempted to reach a dialector
	// for an unsupported type before validating it, this would hang or
	// fail differently than the plain "unsupported database type" error.
	_, err := NewGormDB(&DBConfig{Type: "sqlite3"})
	assert.ErrorContains(t, err, "unsupported database type")
}
