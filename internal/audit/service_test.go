package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeNilIsJSONNull(t *testing.T) {
	assert.Equal(t, "null", encode(nil))
}

func TestEncodeValue(t *testing.T) {
	got := encode(map[string]any{"status": "received", "quantity": 50})
	assert.JSONEq(t, `{"status":"received","quantity":50}`, got)
}

func TestEncodeUnsupportedFallsBackToNull(t *testing.T) {
	assert.Equal(t, "null", encode(make(chan int)))
}
