// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"encoding/json"
	"time"
)

// Result reports one run. It is what Stop returns and what result stores
// persist.
type Result struct {
	SessionID string `json:"sessionId,omitempty"`
	File      string `json:"file"`

	// Frames is the number of measured frames rendered.
	Frames int `json:"frames"`

	// Windows is the number of distinct windows rendered into.
	Windows int `json:"windows,omitempty"`

	Started time.Time     `json:"started,omitzero"`
	Elapsed time.Duration `json:"-"`
	FPS     float64       `json:"fps"`

	// FrameTimes holds per-frame durations in seconds when per-frame
	// measurement is enabled.
	FrameTimes []float64 `json:"frameTimes,omitempty"`

	// Error describes why the run failed, if it did.
	Error string `json:"error,omitempty"`

	// Extra carries engine specific data (collector output, power samples)
	// the host passes through opaquely.
	Extra map[string]any `json:"extra,omitempty"`
}

// ComputeFPS sets FPS from Frames and Elapsed.
func (r *Result) ComputeFPS() {
	if r.Elapsed <= 0 {
		r.FPS = 0
		return
	}
	r.FPS = float64(r.Frames) / r.Elapsed.Seconds()
}

type resultJSON Result

// MarshalJSON encodes Elapsed as seconds.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		resultJSON
		Elapsed float64 `json:"elapsed"`
	}{resultJSON(r), r.Elapsed.Seconds()})
}

// UnmarshalJSON decodes Elapsed from seconds.
func (r *Result) UnmarshalJSON(data []byte) error {
	var v struct {
		resultJSON
		Elapsed float64 `json:"elapsed"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Result(v.resultJSON)
	r.Elapsed = time.Duration(v.Elapsed * float64(time.Second))
	return nil
}
