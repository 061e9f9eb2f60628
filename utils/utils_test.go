package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "test-email", Slugify("Test Email"))
	assert.Equal(t, "premium", Slugify("  Premium "))
	assert.Equal(t, "a--b", Slugify("a  b"))
	assert.Equal(t, "", Slugify("   "))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestStringOrNil(t *testing.T) {
	assert.Nil(t, StringOrNil("  "))
	assert.Equal(t, "Jane", *StringOrNil(" Jane "))
}
