package fsutil

import "bytes"

// ManagedMarker tags files that ftk generated and may overwrite.
// Rendering refuses to replace a file that lacks it.
const ManagedMarker = "# ftk:managed"

// IsManagedFile checks whether data carries the ftk ownership marker.
func IsManagedFile(data []byte) bool {
	return bytes.Contains(data, []byte(ManagedMarker))
}
