//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const ldflagsPackage = "github.com/mesosphere/marathon-scaletest/internal/common/build"

var binaries = []string{"scaletest", "revisionstats"}

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return fmt.Errorf("check(s) failed")
	}
	return nil
}

// Removes build output and test reports.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", reportDir} {
		os.RemoveAll(path)
	}
}

// Builds the scaletest and revisionstats binaries into ./bin with version information.
func Build() error {
	mg.Deps(goCheck, makeLocalBin)
	commit, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		commit = "UNKNOWN"
	}
	version := os.Getenv("RELEASE_VERSION")
	if version == "" {
		version = "UNKNOWN"
	}
	ldflags := fmt.Sprintf("-X %[1]s.GitCommit=%[2]s -X %[1]s.ReleaseVersion=%[3]s -X %[1]s.BuildTime=%[4]s",
		ldflagsPackage, commit, version, time.Now().UTC().Format(time.RFC3339))

	for _, binary := range binaries {
		output := binaryWithExt(filepath.Join(LocalBin, binary))
		if err := goRun("build", "-ldflags", ldflags, "-o", output, "./cmd/"+binary); err != nil {
			return err
		}
	}
	return nil
}

// Runs the scale tests against the cluster in $SCALETEST_DCOSURL, writing the results to ./test_reports.
func ScaleTest() error {
	mg.Deps(Build, makeReportDir)
	return sh.RunV(binaryWithExt(filepath.Join(LocalBin, "scaletest")), "run",
		"--outputDir", reportDir,
		"--junitFile", "scale-test.xml",
	)
}

// Runs the Marathon-on-Marathon EE system test against the cluster in $SCALETEST_DCOSURL.
func MomEE() error {
	mg.Deps(Build, makeReportDir)
	return sh.RunV(binaryWithExt(filepath.Join(LocalBin, "scaletest")), "momee", "--momeeJunitFile", filepath.Join(reportDir, "mom-ee.xml"))
}
