//go:build arm64

package distance

import "golang.org/x/sys/cpu"

func acceleratedSupported() bool {
	return cpu.ARM64.HasASIMD
}
