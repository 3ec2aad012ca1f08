package worktree

import (
	"os"

	"github.com/odvcencio/gitelle/pkg/object"
)

// ModeFromFileInfo maps file permissions to a tree mode. Any execute bit
// makes the file executable.
func ModeFromFileInfo(info os.FileInfo) string {
	if info.Mode()&0o111 != 0 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

// PermFromMode returns the permissions a file with the given tree mode is
// written with.
func PermFromMode(mode string) os.FileMode {
	if object.NormalizeFileMode(mode) == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}
