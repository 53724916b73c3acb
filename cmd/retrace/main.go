// Command retrace replays traces against a rendering engine, handing it
// window surfaces the way a device's UI thread would.
//
// Usage:
//
//	retrace run --file trace.pat [flags]
//	retrace watch DIR [flags]
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
