//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Test mg.Namespace

// Runs the unit tests.
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Runs the internal packages under the race detector.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./internal/..."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}
