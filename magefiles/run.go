//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the sample game in a window.
func (Run) Game() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run game...")
	if _, err := executeCmd(binary, withArgs("-config", "assets/config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the sample game without a window for a fixed number of frames.
func (Run) Headless() error {
	mg.Deps(Build.Engine)
	if _, err := executeCmd(binary, withArgs("-config", "assets/config.toml", "-headless", "-frames", "600"), withStream()); err != nil {
		return err
	}
	return nil
}
