// Package playback serves catalog media over HTTP with byte-range support,
// which video surfaces need for seeking.
package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span within a file of known size.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange interprets a Range request header against a file of the given
// size. A missing header yields (nil, nil): the caller serves the whole
// file. Only the first range of a multi-range request is honored.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if first, _, found := strings.Cut(spec, ","); found {
		spec = strings.TrimSpace(first)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	if startStr == "" {
		return parseSuffixRange(endStr, size)
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, ErrInvalidRange
		}
		if end >= size {
			end = size - 1
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: end}, nil
}

// parseSuffixRange handles "bytes=-N": the final N bytes of the file.
func parseSuffixRange(lenStr string, size int64) (*ByteRange, error) {
	suffixLen, err := strconv.ParseInt(lenStr, 10, 64)
	if err != nil || suffixLen <= 0 {
		return nil, ErrInvalidRange
	}

	start := size - suffixLen
	if start < 0 {
		start = 0
	}
	return &ByteRange{Start: start, End: size - 1}, nil
}
