package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedList is returned when a stored list cannot be decoded.
var ErrMalformedList = errors.New("malformed encoded list")

// EncodeList joins values as "<byte length>:<value>" records, so values may
// contain any character including the separator.
func EncodeList(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// DecodeList reverses EncodeList. An empty string decodes to an empty list.
func DecodeList(raw string) ([]string, error) {
	values := []string{}
	for pos := 0; pos < len(raw); {
		sep := strings.IndexByte(raw[pos:], ':')
		if sep <= 0 {
			return nil, ErrMalformedList
		}
		n, err := strconv.Atoi(raw[pos : pos+sep])
		if err != nil || n < 0 {
			return nil, ErrMalformedList
		}
		start := pos + sep + 1
		if start+n > len(raw) {
			return nil, ErrMalformedList
		}
		values = append(values, raw[start:start+n])
		pos = start + n
	}
	return values, nil
}
