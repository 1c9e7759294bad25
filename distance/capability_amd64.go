//go:build amd64

package distance

import "golang.org/x/sys/cpu"

func acceleratedSupported() bool {
	return cpu.X86.HasAVX2
}
