//go:build !linux

package ordix

import "os"

func datasync(f *os.File) error {
	return f.Sync()
}
