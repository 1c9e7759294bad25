package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	assert.Equal(t, KindFlat, Select(0, 10000))
	assert.Equal(t, KindFlat, Select(9999, 10000))
	assert.Equal(t, KindClustered, Select(10000, 10000))
	assert.Equal(t, KindClustered, Select(20000, 10000))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "flat", KindFlat.String())
	assert.Equal(t, "clustered", KindClustered.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
