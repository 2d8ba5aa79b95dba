package main

import (
	"io"
	"os"
	"os/exec"
	"time"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Dir      string // working directory; relative config paths resolve against it
	LookPath func(name string) (string, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Dir:      ".",
		LookPath: exec.LookPath,
	}
}
