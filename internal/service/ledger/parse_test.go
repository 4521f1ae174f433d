package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBottles(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "5", want: 5},
		{in: " 12 ", want: 12},
		{in: "-3", wantErr: true},
		{in: "0", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "2.5", wantErr: true},
		{in: "100000", want: MaxBottlesPerDelivery},
		{in: "100001", wantErr: true},
		{in: "9223372036854775807", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBottles(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidBottles)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("60.50")
	require.NoError(t, err)
	assertDecimal(t, "60.5", got)

	for _, in := range []string{"0", "-1", "abc", "", "0.00"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", in)
	}
}

func TestParsePrice(t *testing.T) {
	got, err := ParsePrice("0")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ParsePrice("12.75")
	require.NoError(t, err)
	assertDecimal(t, "12.75", got)

	_, err = ParsePrice("-2")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ParsePrice("ten")
	assert.ErrorIs(t, err, ErrInvalidPrice)
}
