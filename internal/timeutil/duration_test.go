package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int64
	}{
		{"seconds only", "45", 45},
		{"minutes and seconds", "2:30", 150},
		{"hours minutes seconds", "1:02:03", 3723},
		{"days hours minutes seconds", "2:01:00:00", 176400},
		{"zero", "0", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDuration(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	cases := []string{"", "abc", "1:2:3:4:5", "1::30", "-5", "1:-30"}
	for _, in := range cases {
		_, err := ParseDuration(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestMustParseDurationPanicsOnError(t *testing.T) {
	assert.Panics(t, func() { MustParseDuration("bad") })
}
