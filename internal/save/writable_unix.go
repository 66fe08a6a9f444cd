//go:build unix

package save

import "golang.org/x/sys/unix"

func checkWritable(path string) error {
	return unix.Access(path, unix.W_OK)
}
