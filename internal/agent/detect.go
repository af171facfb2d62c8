package agent

import "strings"

// snapshotMarker is the completion line fragment the replication tool prints
// when a snapshot has been durably written to the remote store. The marker,
// not the exit code, is the sole success signal: the process is killed
// deliberately on the happy path, so its exit status carries no meaning.
const snapshotMarker = "snapshot written"

// snapshotWritten reports whether the captured diagnostic output carries the
// completion marker. A plain substring search: the marker never spans lines,
// and a line-by-line scan would impose a maximum line length for no gain.
// Pure function, no I/O. Empty input and unrelated output report false.
func snapshotWritten(output string) bool {
	return strings.Contains(output, snapshotMarker)
}
