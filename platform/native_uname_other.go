//go:build !unix

package platform

func unameRelease() string { return "unknown" }
