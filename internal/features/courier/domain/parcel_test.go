package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FlexibleID
	}{
		{"number", `{"id": 1424107}`, "1424107"},
		{"string", `{"id": "SF-88"}`, "SF-88"},
		{"null", `{"id": null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				ID FlexibleID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.in), &out))
			assert.Equal(t, tt.want, out.ID)
		})
	}

	var bad struct {
		ID FlexibleID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id": true}`), &bad))
}

func TestInvoiceFor(t *testing.T) {
	assert.Equal(t, "ORD-42", InvoiceFor(42))
}

func TestCourierError_Is(t *testing.T) {
	err := fmt.Errorf("dispatch order 9: %w", &CourierError{
		Kind:    KindTimeout,
		Message: "Connection to Steadfast timed out. Please try again later.",
	})

	assert.True(t, errors.Is(err, ErrCourierTimeout))
	assert.False(t, errors.Is(err, ErrCourierUnavailable))
	assert.False(t, errors.Is(err, ErrCourierRejected))

	var ce *CourierError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Connection to Steadfast timed out. Please try again later.", ce.Error())
	assert.Equal(t, "timeout", ce.Kind.String())
}

func TestCourierError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &CourierError{Kind: KindFailed, Message: cause.Error(), Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrCourierFailed)
}
