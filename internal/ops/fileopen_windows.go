//go:build windows

package ops

import "os"

// openFileNoFollow opens a file for writing.
// O_NOFOLLOW is not available on Windows; symlink creation there requires
// elevated privileges, and export paths are symlink-checked by
// ValidateExportPath before reaching this point.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}
