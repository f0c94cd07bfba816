//go:build mage

package main

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const goVersionConstraint = ">= 1.18.0"

func goBinary() string {
	return binaryWithExt("go")
}

func goOutput(args ...string) (string, error) {
	return sh.Output(goBinary(), args...)
}

func goRun(args ...string) error {
	return sh.RunV(goBinary(), args...)
}

func goCheck() error {
	// go version go1.18.10 linux/amd64
	return checkToolVersion(goBinary(), []string{"version"}, 2, "go", goVersionConstraint)
}

// checkToolVersion runs binary with args and checks the version found in the given
// whitespace separated field of its output against constraint.
func checkToolVersion(binary string, args []string, field int, prefix string, constraint string) error {
	output, err := sh.Output(binary, args...)
	if err != nil {
		return errors.Errorf("error running %s %s: %v", binary, strings.Join(args, " "), err)
	}
	fields := strings.Fields(output)
	if len(fields) <= field {
		return errors.Errorf("unexpected version output of %s: %s", binary, output)
	}
	version, err := semver.NewVersion(strings.TrimPrefix(fields[field], prefix))
	if err != nil {
		return errors.Errorf("error parsing %s version %q: %v", binary, fields[field], err)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Errorf("error parsing constraint %q: %v", constraint, err)
	}
	if !c.Check(version) {
		return errors.Errorf("found %s version %v but it failed constraint %v", binary, version, c)
	}
	return nil
}
