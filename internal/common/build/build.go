// Package build holds build information injected with -ldflags at link time, e.g.,
//
//	go build -ldflags "-X github.com/mesosphere/marathon-scaletest/internal/common/build.GitCommit=$(git rev-parse HEAD)"
package build

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
)

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	GoVersion      = runtime.Version()
	BuildTime      = "UNKNOWN"
)

// Print writes the build information as an aligned table.
func Print(out io.Writer) error {
	w := tabwriter.NewWriter(out, 1, 1, 1, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", BuildTime)
	return w.Flush()
}
