// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package softengine

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gogpu/retrace/engine"
)

// Name is the registry name of the software engine.
const Name = "soft"

func init() {
	engine.Register(Name, 10, FromArgs, nil)
}

// FromArgs builds an Engine from launcher parameters:
//
//	frames=N       frames in the workload
//	header=WxH     captured window size
func FromArgs(args map[string]string) (engine.Facade, error) {
	var opts []Option
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := args[k]
		switch k {
		case "frames":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: softengine: frames=%q", engine.ErrConfig, v)
			}
			opts = append(opts, WithFrameCount(n))
		case "header":
			var w, h int
			if _, err := fmt.Sscanf(v, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
				return nil, fmt.Errorf("%w: softengine: header=%q", engine.ErrConfig, v)
			}
			opts = append(opts, WithHeaderSize(w, h))
		default:
			return nil, fmt.Errorf("%w: softengine: unknown parameter %q", engine.ErrConfig, k)
		}
	}
	return New(opts...), nil
}
