package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "commissaire/hosts", Clean("/commissaire//hosts/"))
	assert.Equal(t, "commissaire", Clean("commissaire"))
	assert.Equal(t, "", Clean("///"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "commissaire/hosts", Join("commissaire", "hosts"))
	assert.Equal(t, "commissaire/hosts", Join("/commissaire/", "/hosts"))
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"a", "a/b"}, Ancestors("a/b/c"))
	assert.Equal(t, []string{"commissaire"}, Ancestors("/commissaire/hosts"))
	assert.Nil(t, Ancestors("commissaire"))
}

func TestIsBelow(t *testing.T) {
	assert.True(t, IsBelow("commissaire/hosts", "commissaire"))
	assert.True(t, IsBelow("commissaire/hosts/10.0.0.1", "/commissaire/"))
	assert.False(t, IsBelow("commissaire", "commissaire"))
	assert.False(t, IsBelow("commissaire2/hosts", "commissaire"))
	assert.True(t, IsBelow("anything", ""))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("commissaire/hosts"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("/"))
	assert.Error(t, Validate("commissaire/../etc"))
	assert.Error(t, Validate("./commissaire"))
}
