// Package timeutil parses the job wall-time budget strings accepted by the
// launcher and worker configuration surfaces.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration accepts the four duration shapes the launcher understands:
//
//	ss
//	mm:ss
//	hh:mm:ss
//	d:hh:mm:ss
//
// Each field must be a non-negative integer; the result is the total number
// of seconds. A malformed string is a configuration error.
func ParseDuration(s string) (int64, error) {
	fields := strings.Split(s, ":")
	if len(fields) == 0 || len(fields) > 4 {
		return 0, fmt.Errorf("timeutil: invalid duration %q: expected ss, mm:ss, hh:mm:ss, or d:hh:mm:ss", s)
	}

	nums := make([]int64, len(fields))
	for i, f := range fields {
		if f == "" {
			return 0, fmt.Errorf("timeutil: invalid duration %q: empty field", s)
		}
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timeutil: invalid duration %q: field %q is not an integer", s, f)
		}
		if n < 0 {
			return 0, fmt.Errorf("timeutil: invalid duration %q: field %q is negative", s, f)
		}
		nums[i] = n
	}

	var days, hours, minutes, seconds int64
	switch len(nums) {
	case 1:
		seconds = nums[0]
	case 2:
		minutes, seconds = nums[0], nums[1]
	case 3:
		hours, minutes, seconds = nums[0], nums[1], nums[2]
	case 4:
		days, hours, minutes, seconds = nums[0], nums[1], nums[2], nums[3]
	}

	total := seconds + minutes*60 + hours*3600 + days*86400
	return total, nil
}

// MustParseDuration panics on a malformed input. It exists for table-driven
// tests and static defaults; production code paths must use ParseDuration
// and surface the error as a configuration error.
func MustParseDuration(s string) int64 {
	n, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return n
}
