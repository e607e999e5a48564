//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const binary = "bin/anima2d"

// Builds the engine and the sample game into bin/.
func (Build) Engine() error {
	fmt.Println("Building engine...")
	if _, err := executeCmd("go", withArgs("build", "-o", binary, "."), withStream()); err != nil {
		return err
	}
	return nil
}
