package compose

import "path/filepath"

// resolvePath resolves ref relative to dir, the same way the teacher's
// langdef tracks each loaded file's origin to resolve further includes.
func resolvePath(dir, ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Clean(filepath.Join(dir, ref))
}
