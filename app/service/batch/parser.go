package batch

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const epochYear = 2020

var (
	ErrMalformedNumber = errors.New("malformed batch number")
	ErrInvalidDate     = errors.New("batch number contains an invalid date")
)

// soapTypes maps short product codes to their full names. Codes
// not listed here pass through unchanged.
var soapTypes = map[string]string{
	"ANA": "Annatto",
	"CHA": "Charcoal",
	"LAV": "Lavender",
	"EUC": "Eucalyptus",
}

type Info struct {
	Number   string
	Date     time.Time
	SoapType string
}

// Parse decodes a batch number of the form YMMDDCODE: one digit of
// year offset from 2020, two digits of month, two digits of day and
// a trailing product code.
func Parse(number string) (Info, error) {
	if len(number) < 5 {
		return Info{}, fmt.Errorf("%w: %q is too short", ErrMalformedNumber, number)
	}

	yearOffset, err := strconv.Atoi(number[0:1])
	if err != nil {
		return Info{}, fmt.Errorf("%w: bad year digit in %q", ErrMalformedNumber, number)
	}

	month, err := strconv.Atoi(number[1:3])
	if err != nil {
		return Info{}, fmt.Errorf("%w: bad month digits in %q", ErrMalformedNumber, number)
	}

	day, err := strconv.Atoi(number[3:5])
	if err != nil {
		return Info{}, fmt.Errorf("%w: bad day digits in %q", ErrMalformedNumber, number)
	}

	year := epochYear + yearOffset

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return Info{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidDate, year, month, day)
	}

	code := number[5:]
	soapType, ok := soapTypes[code]
	if !ok {
		soapType = code
	}

	return Info{
		Number:   number,
		Date:     date,
		SoapType: soapType,
	}, nil
}
