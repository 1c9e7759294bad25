//go:build !amd64 && !arm64

package distance

func acceleratedSupported() bool { return false }
