//go:build mage

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	gotestsumVersion = "v1.8.2"
	reportDir        = "test_reports"
)

var LocalBin = filepath.Join(os.Getenv("PWD"), "bin")

func gotestsumBinary() string {
	return binaryWithExt(filepath.Join(LocalBin, "gotestsum"))
}

// Installs gotestsum into ./bin unless it is already there.
func gotestsum() error {
	mg.Deps(makeLocalBin)
	if _, err := os.Stat(gotestsumBinary()); err == nil {
		return nil
	}
	return sh.RunWithV(
		map[string]string{"GOBIN": LocalBin},
		goBinary(), "install", "gotest.tools/gotestsum@"+gotestsumVersion,
	)
}

// Runs the unit tests, writing coverage and a junit report to ./test_reports.
func Tests() error {
	mg.Deps(gotestsum, makeReportDir)
	packages, err := goOutput("list", "./internal/...", "./pkg/...", "./cmd/...")
	if err != nil {
		return err
	}
	return runTests("unit", true, filterPackages(strings.Fields(packages), "/e2e")...)
}

// Runs the tests against a live cluster. They are skipped unless SCALETEST_E2E_DCOSURL is set.
func E2E() error {
	mg.Deps(gotestsum, makeReportDir)
	return runTests("e2e", false, "./e2e/...")
}

// runTests writes <name>.xml and, with coverage, <name>-coverage.out to the report directory.
func runTests(name string, coverage bool, packages ...string) error {
	args := []string{
		"--format", "short-verbose",
		"--junitfile", filepath.Join(reportDir, name+".xml"),
		"--",
	}
	if coverage {
		args = append(args, "-coverprofile", filepath.Join(reportDir, name+"-coverage.out"))
	}
	args = append(args, packages...)
	return sh.RunV(gotestsumBinary(), args...)
}

func makeReportDir() error {
	return os.MkdirAll(reportDir, 0o755)
}
