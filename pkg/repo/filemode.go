package repo

import (
	"io/fs"

	"github.com/odvcencio/grit/pkg/object"
)

// modeFromFileInfo maps lstat metadata to a tree entry mode. Anything that is
// neither a directory nor a regular file is recorded as a symlink entry.
func modeFromFileInfo(info fs.FileInfo) string {
	switch {
	case info.IsDir():
		return object.TreeModeDir
	case info.Mode().IsRegular():
		if info.Mode()&0o111 != 0 {
			return object.TreeModeExecutable
		}
		return object.TreeModeFile
	default:
		return object.TreeModeSymlink
	}
}
