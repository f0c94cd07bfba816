//go:build mage

package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}

// Removes packages containing any of the excluded substrings.
func filterPackages(packages []string, excluded ...string) []string {
	var result []string
outer:
	for _, p := range packages {
		for _, e := range excluded {
			if strings.Contains(p, e) {
				continue outer
			}
		}
		result = append(result, p)
	}
	return result
}

func makeLocalBin() error {
	if _, err := os.Stat(LocalBin); os.IsNotExist(err) {
		return os.MkdirAll(LocalBin, os.ModePerm)
	}
	return nil
}
