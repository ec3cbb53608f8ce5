package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetterString(t *testing.T) {
	name := LetterString(20)
	require.Len(t, name, 20)
	for _, c := range name {
		assert.True(t, (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'), "unexpected %q", c)
	}
}

func TestEdit(t *testing.T) {
	data := Bytes(1024)
	edited := Edit(data, 10)
	assert.NotEqual(t, data, edited)
	assert.Len(t, data, 1024, "input must be left untouched")

	assert.NotPanics(t, func() { _ = Edit(nil, 5) })
}

func benchmarkBytes(b *testing.B, size int) {
	for n := 0; n < b.N; n++ {
		_ = Bytes(size)
	}
}

func BenchmarkBytes1000(b *testing.B)    { benchmarkBytes(b, 1000) }
func BenchmarkBytes1000000(b *testing.B) { benchmarkBytes(b, 1000000) }
