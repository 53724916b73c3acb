// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxFrame is the end of an unbounded frame range.
const MaxFrame = 9999999

// FrameRange is a half-open range of frame numbers [Start, End).
type FrameRange struct {
	Start int
	End   int
}

// ParseFrameRange parses "start-end". Start must be lower than End.
func ParseFrameRange(s string) (FrameRange, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return FrameRange{}, fmt.Errorf("%w: invalid frames parameter %q", ErrConfig, s)
	}
	start, err1 := strconv.Atoi(a)
	end, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || start < 0 {
		return FrameRange{}, fmt.Errorf("%w: invalid frames parameter %q", ErrConfig, s)
	}
	if start >= end {
		return FrameRange{}, fmt.Errorf("%w: start frame %d must be lower than end frame %d", ErrConfig, start, end)
	}
	return FrameRange{Start: start, End: end}, nil
}

// Contains reports whether frame n is measured.
func (r FrameRange) Contains(n int) bool {
	return n >= r.Start && n < r.End
}

// Len returns the number of frames in the range.
func (r FrameRange) Len() int {
	return r.End - r.Start
}

// String returns "start-end".
func (r FrameRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// interval is one inclusive range of a FrameSet with a step.
type interval struct {
	start, stop, step int
}

// FrameSet selects frames, for example the frames to snapshot.
//
// The textual form is a list of ranges separated by commas or spaces. Each
// range is "*", a number, or "start-end" (inclusive), optionally followed by
// "/step": "1-5,9", "*/10", "100-200/2".
type FrameSet struct {
	ranges []interval
}

// ParseFrameSet parses the textual form of a FrameSet.
func ParseFrameSet(s string) (FrameSet, error) {
	var fs FrameSet
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return fs, fmt.Errorf("%w: empty frame set", ErrConfig)
	}
	for _, f := range fields {
		iv, err := parseInterval(f)
		if err != nil {
			return FrameSet{}, fmt.Errorf("%w: frame set %q: %v", ErrConfig, s, err)
		}
		fs.ranges = append(fs.ranges, iv)
	}
	return fs, nil
}

func parseInterval(s string) (interval, error) {
	iv := interval{step: 1}
	body, stepText, hasStep := strings.Cut(s, "/")
	if hasStep {
		step, err := strconv.Atoi(stepText)
		if err != nil || step <= 0 {
			return iv, fmt.Errorf("bad step %q", stepText)
		}
		iv.step = step
	}

	if body == "*" {
		iv.stop = MaxFrame
		return iv, nil
	}
	a, b, isRange := strings.Cut(body, "-")
	start, err := strconv.Atoi(a)
	if err != nil || start < 0 {
		return iv, fmt.Errorf("bad frame %q", a)
	}
	iv.start, iv.stop = start, start
	if isRange {
		stop, err := strconv.Atoi(b)
		if err != nil || stop < start {
			return iv, fmt.Errorf("bad range %q", body)
		}
		iv.stop = stop
	}
	return iv, nil
}

// Contains reports whether frame n is in the set.
func (fs FrameSet) Contains(n int) bool {
	for _, iv := range fs.ranges {
		if n >= iv.start && n <= iv.stop && (n-iv.start)%iv.step == 0 {
			return true
		}
	}
	return false
}

// Empty reports whether the set selects nothing.
func (fs FrameSet) Empty() bool {
	return len(fs.ranges) == 0
}
