package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	trackingPrefix     = "TNG"
	trackingDateLayout = "20060102"
)

var ErrMalformedTrackingCode = errors.New("malformed tracking code")

// AllocateTrackingCode derives the public reference code for a submission.
// The id is unique and immutable, so the code is unique regardless of date.
func AllocateTrackingCode(id int64, createdAt time.Time) string {
	return fmt.Sprintf("%s-%s-%d", trackingPrefix, createdAt.UTC().Format(trackingDateLayout), id)
}

// ParseTrackingCode splits a code into its identifier and UTC creation date.
// Only codes AllocateTrackingCode could have produced are accepted.
func ParseTrackingCode(code string) (int64, time.Time, error) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || parts[0] != trackingPrefix || len(parts[1]) != len(trackingDateLayout) {
		return 0, time.Time{}, ErrMalformedTrackingCode
	}

	date, err := time.ParseInLocation(trackingDateLayout, parts[1], time.UTC)
	if err != nil {
		return 0, time.Time{}, ErrMalformedTrackingCode
	}

	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != parts[2] {
		return 0, time.Time{}, ErrMalformedTrackingCode
	}

	return id, date, nil
}
