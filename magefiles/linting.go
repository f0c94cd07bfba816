//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const golangciLintVersionConstraint = ">= 1.52.0"

func golangciLintCheck() error {
	// golangci-lint has version 1.52.2 built with go1.20.3 from ...
	return checkToolVersion(golangciLintBinary(), []string{"--version"}, 3, "v", golangciLintVersionConstraint)
}

// Runs golangci-lint with the settings in .golangci.yml.
func Lint() error {
	return lint()
}

// Runs golangci-lint and applies the fixes it can make automatically.
func LintFix() error {
	return lint("--fix")
}

func lint(extraArgs ...string) error {
	mg.Deps(golangciLintCheck)
	args := append([]string{"run", "--config", ".golangci.yml", "--timeout", "10m"}, extraArgs...)
	output, err := sh.Output(golangciLintBinary(), args...)
	if err != nil {
		fmt.Printf("\nOutput: %s\n", output)
	}
	return err
}

func golangciLintBinary() string {
	return binaryWithExt("golangci-lint")
}
