package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripApprovalPrefix(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		approved bool
	}{
		{"Teacher Approved - Lava Flow", "Lava Flow", true},
		{"teacher approved -  Lava Flow ", "Lava Flow", true},
		{"Volcano", "Volcano", false},
		{"Teacher", "Teacher", false},
		{"Teacher Approved -", "", true},
		{"Teacher Approved -Lava", "Teacher Approved -Lava", false},
	}
	for _, tc := range cases {
		got, approved := StripApprovalPrefix(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.approved, approved, tc.in)
	}
}

func TestCatalogBuckets(t *testing.T) {
	catalog := Catalog{}
	assert.Nil(t, catalog.Bucket("5", "Science"))

	catalog.SetBucket("5", "Science", []string{"Volcano"})
	catalog.SetBucket("5", "Math", []string{"Fractions"})
	catalog.SetBucket("4", "Science", []string{"Magnets"})

	assert.Equal(t, []string{"Volcano"}, catalog.Bucket("5", "Science"))
	assert.Nil(t, catalog.Bucket("5", "History"))
	assert.Equal(t, []string{"4", "5"}, catalog.Grades())
	assert.Equal(t, []string{"Math", "Science"}, catalog.Subjects("5"))
	assert.Empty(t, catalog.Subjects("9"))
}
