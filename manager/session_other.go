//go:build !linux

package manager

import (
	"fmt"
	"runtime"
)

func NewEnv(_ string) (*Env, error) {
	return nil, fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
}
