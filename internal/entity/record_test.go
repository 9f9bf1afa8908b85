package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordDefaults(t *testing.T) {
	r := NewRecord(SourceTypeRSIOversold, FieldCompany, FieldRSI)

	assert.Equal(t, "N/A", r.Get(FieldRSI))
	assert.Equal(t, "N/A", r.Get("not_a_field"))
	assert.Equal(t, 2, r.SentinelCount())

	r.Set(FieldCompany, "Acme Ltd")
	assert.Equal(t, "Acme Ltd", r.Name())
	assert.Equal(t, 1, r.SentinelCount())
}
