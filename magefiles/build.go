//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/rustsim"

type Build mg.Namespace

// Builds the simulator binary into bin/.
func (Build) Binary() error {
	_, err := executeCmd("go", withArgs("build", "-o", binary, "./cmd/rustsim"), withEnv("CGO_ENABLED=0"))
	return err
}

// Removes build output.
func Clean() error {
	return sh.Rm("bin")
}
