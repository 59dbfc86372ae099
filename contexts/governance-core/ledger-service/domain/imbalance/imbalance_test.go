package imbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitConservesMagnitude(t *testing.T) {
	token := NewPositive(100)
	first, rest := token.Split(30)

	assert.Equal(t, uint64(30), first.Peek())
	assert.Equal(t, uint64(70), rest.Peek())
	assert.PanicsWithValue(t, "imbalance: token consumed twice", func() { token.Take() },
		"splitting must consume the original token")
}

func TestSplitBeyondMagnitudeCapsAtTotal(t *testing.T) {
	token := NewNegative(25)
	first, rest := token.Split(40)

	assert.Equal(t, uint64(25), first.Peek())
	assert.Equal(t, uint64(0), rest.Peek())
}

func TestMergeSumsMagnitudes(t *testing.T) {
	merged := NewPositive(10).Merge(NewPositive(15))
	assert.Equal(t, uint64(25), merged.Peek())
}

func TestOffsetReturnsDominantPolarity(t *testing.T) {
	signed := NewPositive(10).Offset(NewNegative(4))
	require.Equal(t, PolarityPositive, signed.Polarity())
	assert.Equal(t, uint64(6), signed.Peek())

	signed = NewPositive(3).Offset(NewNegative(8))
	require.Equal(t, PolarityNegative, signed.Polarity())
	assert.Equal(t, uint64(5), signed.Peek())
}

func TestOffsetEqualMagnitudesIsZeroPositive(t *testing.T) {
	signed := NewPositive(7).Offset(NewNegative(7))
	require.Equal(t, PolarityPositive, signed.Polarity())
	assert.Equal(t, uint64(0), signed.Peek())
}

func TestSignedMergeAcrossPolarities(t *testing.T) {
	positive := SignedFromPositive(NewPositive(10))
	negative := SignedFromNegative(NewNegative(4))

	merged := positive.Merge(negative)
	require.Equal(t, PolarityPositive, merged.Polarity())
	assert.Equal(t, uint64(6), merged.Peek())
}

func TestDoubleConsumePanics(t *testing.T) {
	token := NewPositive(5)
	_ = token.Take()
	assert.PanicsWithValue(t, "imbalance: token consumed twice", func() { token.Take() })
}

func TestDropZeroPanicsOnNonZero(t *testing.T) {
	NewPositive(0).DropZero()
	assert.Panics(t, func() { NewNegative(1).DropZero() })
}

func TestZeroValueTokensAreInert(t *testing.T) {
	var token Positive
	assert.Equal(t, uint64(0), token.Peek())
	assert.Equal(t, uint64(0), token.Take())
}
