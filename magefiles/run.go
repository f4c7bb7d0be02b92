//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Renders a fixed number of frames on the headless backend and prints the stats.
func (Run) Headless() error {
	fmt.Println("Run engine headless...")
	if _, err := executeCmd("go", withArgs("run", ".", "render", "--backend", "headless", "--frames", "120"), withStream()); err != nil {
		return err
	}
	return nil
}

// Opens a window and renders with the Vulkan backend until it is closed.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/lumen", withArgs("render", "--backend", "vulkan"), withStream()); err != nil {
		return err
	}
	return nil
}
