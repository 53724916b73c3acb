// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"errors"
	"testing"
)

func TestParseFrameRange(t *testing.T) {
	tests := []struct {
		in      string
		want    FrameRange
		wantErr bool
	}{
		{"1-9999999", FrameRange{1, 9999999}, false},
		{" 10-20 ", FrameRange{10, 20}, false},
		{"0-1", FrameRange{0, 1}, false},
		{"5-5", FrameRange{}, true},
		{"9-3", FrameRange{}, true},
		{"12", FrameRange{}, true},
		{"a-b", FrameRange{}, true},
		{"-1-4", FrameRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrameRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("ParseFrameRange(%q) error = %v, want ErrConfig", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrameRange(%q) = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFrameRange(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameRangeContains(t *testing.T) {
	r := FrameRange{Start: 2, End: 5}
	for n, want := range map[int]bool{1: false, 2: true, 4: true, 5: false} {
		if got := r.Contains(n); got != want {
			t.Errorf("Contains(%d) = %v, want %v", n, got, want)
		}
	}
	if r.Len() != 3 || r.String() != "2-5" {
		t.Errorf("Len() = %d, String() = %q", r.Len(), r.String())
	}
}

func TestFrameSet(t *testing.T) {
	tests := []struct {
		in  string
		yes []int
		no  []int
	}{
		{"1-5,9", []int{1, 3, 5, 9}, []int{0, 6, 8, 10}},
		{"*/10", []int{0, 10, 1000}, []int{1, 15}},
		{"100-200/2", []int{100, 102, 200}, []int{101, 99, 202}},
		{"3 7", []int{3, 7}, []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			fs, err := ParseFrameSet(tt.in)
			if err != nil {
				t.Fatalf("ParseFrameSet(%q) = %v", tt.in, err)
			}
			for _, n := range tt.yes {
				if !fs.Contains(n) {
					t.Errorf("Contains(%d) = false, want true", n)
				}
			}
			for _, n := range tt.no {
				if fs.Contains(n) {
					t.Errorf("Contains(%d) = true, want false", n)
				}
			}
		})
	}
}

func TestParseFrameSetErrors(t *testing.T) {
	for _, in := range []string{"", ",", "x", "5-2", "1-3/0", "1/x"} {
		if _, err := ParseFrameSet(in); !errors.Is(err, ErrConfig) {
			t.Errorf("ParseFrameSet(%q) = %v, want ErrConfig", in, err)
		}
	}
	var zero FrameSet
	if !zero.Empty() || zero.Contains(0) {
		t.Error("zero FrameSet should be empty")
	}
}
