package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseFilterNormalize(t *testing.T) {
	f := CaseFilter{}.Normalize()
	assert.Equal(t, SortFiledDesc, f.Sort)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPerPage, f.PerPage)
	assert.Equal(t, 0, f.Offset())

	f = CaseFilter{Sort: "random", Page: -4, PerPage: 5000}.Normalize()
	assert.Equal(t, SortFiledDesc, f.Sort)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPerPage, f.PerPage)

	f = CaseFilter{Page: 3, PerPage: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}

func TestCaseFilterHugePageKeepsOffsetPositive(t *testing.T) {
	maxInt := int(^uint(0) >> 1)
	f := CaseFilter{Page: maxInt, PerPage: MaxPerPage}.Normalize()
	assert.Equal(t, MaxPage, f.Page)
	assert.Positive(t, f.Offset())
}
