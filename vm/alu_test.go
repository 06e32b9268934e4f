package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/isa"
	"orrery/object"
)

func TestBinaryArithmeticIntegerStaysInteger(t *testing.T) {
	result, err := binaryArithmetic(isa.OpAdd, &object.Integer{Value: 2}, &object.Integer{Value: 3}, 0)
	require.Nil(t, err)
	require.IsType(t, &object.Integer{}, result)
	assert.Equal(t, int64(5), result.(*object.Integer).Value)
}

func TestBinaryArithmeticPromotesToFloat(t *testing.T) {
	result, err := binaryArithmetic(isa.OpMul, &object.Integer{Value: 2}, &object.Float{Value: 1.5}, 0)
	require.Nil(t, err)
	require.IsType(t, &object.Float{}, result)
	assert.InDelta(t, 3.0, result.(*object.Float).Value, 1e-9)
}

func TestBinaryArithmeticStringConcat(t *testing.T) {
	result, err := binaryArithmetic(isa.OpAdd, &object.String{Value: "foo"}, &object.String{Value: "bar"}, 0)
	require.Nil(t, err)
	assert.Equal(t, "foobar", result.(*object.String).Value)
}

func TestBinaryArithmeticTypeMismatch(t *testing.T) {
	_, err := binaryArithmetic(isa.OpAdd, &object.String{Value: "foo"}, &object.Integer{Value: 1}, 0)
	require.NotNil(t, err)
	assert.Equal(t, TypeError, err.Kind)
}

func TestBinaryArithmeticDivisionByZero(t *testing.T) {
	_, err := binaryArithmetic(isa.OpDiv, &object.Integer{Value: 1}, &object.Integer{Value: 0}, 0)
	require.NotNil(t, err)
	assert.Equal(t, DivideByZeroError, err.Kind)
}

func TestBinaryArithmeticModulusByZeroFloat(t *testing.T) {
	_, err := binaryArithmetic(isa.OpMod, &object.Float{Value: 1}, &object.Integer{Value: 0}, 0)
	require.NotNil(t, err)
	assert.Equal(t, DivideByZeroError, err.Kind)
}

func TestBitwiseRejectsNonIntegers(t *testing.T) {
	_, err := bitwise(isa.OpAnd, &object.Float{Value: 1}, &object.Integer{Value: 2}, 0)
	require.NotNil(t, err)
	assert.Equal(t, TypeError, err.Kind)
}

func TestBitwiseAndOr(t *testing.T) {
	result, err := bitwise(isa.OpAnd, &object.Integer{Value: 6}, &object.Integer{Value: 3}, 0)
	require.Nil(t, err)
	assert.Equal(t, int64(2), result.(*object.Integer).Value)

	result, err = bitwise(isa.OpOr, &object.Integer{Value: 6}, &object.Integer{Value: 1}, 0)
	require.Nil(t, err)
	assert.Equal(t, int64(7), result.(*object.Integer).Value)
}

func TestLogicalBinaryTruthiness(t *testing.T) {
	result, err := logicalBinary(isa.OpLAnd, object.TRUE, object.FALSE, 0)
	require.Nil(t, err)
	assert.Same(t, object.FALSE, result)

	result, err = logicalBinary(isa.OpLOr, object.FALSE, object.TRUE, 0)
	require.Nil(t, err)
	assert.Same(t, object.TRUE, result)
}

func TestNegateIntegerAndFloat(t *testing.T) {
	result, err := negate(&object.Integer{Value: 5}, 0)
	require.Nil(t, err)
	assert.Equal(t, int64(-5), result.(*object.Integer).Value)

	result, err = negate(&object.Float{Value: 2.5}, 0)
	require.Nil(t, err)
	assert.InDelta(t, -2.5, result.(*object.Float).Value, 1e-9)
}

func TestNegateRejectsNonNumeric(t *testing.T) {
	_, err := negate(&object.String{Value: "x"}, 0)
	require.NotNil(t, err)
	assert.Equal(t, TypeError, err.Kind)
}

func TestCompareCrossPromotesNumeric(t *testing.T) {
	result, err := compare(isa.OpLt, &object.Integer{Value: 1}, &object.Float{Value: 1.5}, 0)
	require.Nil(t, err)
	assert.Same(t, object.TRUE, result)
}

func TestCompareStringsLexicographic(t *testing.T) {
	result, err := compare(isa.OpLt, &object.String{Value: "abc"}, &object.String{Value: "abd"}, 0)
	require.Nil(t, err)
	assert.Same(t, object.TRUE, result)
}

func TestCompareMismatchedTypesEqualityFallback(t *testing.T) {
	result, err := compare(isa.OpEq, &object.Integer{Value: 1}, &object.String{Value: "1"}, 0)
	require.Nil(t, err)
	assert.Same(t, object.FALSE, result)

	result, err = compare(isa.OpNeq, &object.Integer{Value: 1}, &object.String{Value: "1"}, 0)
	require.Nil(t, err)
	assert.Same(t, object.TRUE, result)
}

func TestCompareMismatchedTypesOrderingIsTypeError(t *testing.T) {
	_, err := compare(isa.OpLt, &object.Integer{Value: 1}, &object.String{Value: "1"}, 0)
	require.NotNil(t, err)
	assert.Equal(t, TypeError, err.Kind)
}
