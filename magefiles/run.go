//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs a short demo with telemetry on localhost:8089.
func (Run) Demo() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run demo...")
	_, err := executeCmd(binary, withArgs("-frames", "1800", "-objects", "12", "-telemetry", "127.0.0.1:8089"), withStream())
	return err
}
