package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilding_Coordinates(t *testing.T) {
	t.Run("json numbers", func(t *testing.T) {
		x, y, err := Building{SchwerpX: json.Number("3451234.25"), SchwerpY: json.Number("5412345")}.Coordinates()

		assert.NoError(t, err)
		assert.Equal(t, 3451234.25, x)
		assert.Equal(t, 5412345.0, y)
	})

	t.Run("decimal comma strings", func(t *testing.T) {
		x, y, err := Building{SchwerpX: "3451234,25", SchwerpY: " 12,5 "}.Coordinates()

		assert.NoError(t, err)
		assert.Equal(t, 3451234.25, x)
		assert.Equal(t, 12.5, y)
	})

	t.Run("float values", func(t *testing.T) {
		x, _, err := Building{SchwerpX: 1.5, SchwerpY: 2.0}.Coordinates()

		assert.NoError(t, err)
		assert.Equal(t, 1.5, x)
	})

	t.Run("null", func(t *testing.T) {
		_, _, err := Building{SchwerpX: json.Number("1"), SchwerpY: nil}.Coordinates()

		assert.ErrorContains(t, err, "schwerp_y")
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, _, err := Building{SchwerpX: true, SchwerpY: json.Number("1")}.Coordinates()

		assert.ErrorContains(t, err, "schwerp_x")
	})
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "", ValueText(nil))
	assert.Equal(t, "abc", ValueText("abc"))
	assert.Equal(t, "1.50", ValueText(json.Number("1.50")))
	assert.Equal(t, "true", ValueText(true))
	assert.Equal(t, `{"a":1}`, ValueText(map[string]any{"a": 1}))
}

func TestAppError(t *testing.T) {
	err := &AppError{Path: "a.json", Message: "Field \"address\" not found", Err: ErrMissingField}

	assert.Equal(t, `a.json: Field "address" not found - missing field`, err.Error())
	assert.True(t, errors.Is(err, ErrMissingField))

	bare := &AppError{Path: "b.json", Message: "Failed"}
	assert.Equal(t, "b.json: Failed", bare.Error())
}
