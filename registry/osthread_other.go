//go:build !linux

package registry

func setOSThreadName(string) {}
