// Command crawler runs a breadth-first crawl from a set of start URLs and
// writes one record per loaded page.
//
// Usage:
//
//	crawler run [flags] [url...]
//	crawler version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "crawler failed: %v\n", err)
		os.Exit(1)
	}
}
