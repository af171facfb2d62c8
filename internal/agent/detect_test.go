package agent

import (
	"strings"
	"testing"
)

func TestSnapshotWritten(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{name: "empty input", output: "", want: false},
		{name: "unrelated lines", output: "foo\nbar\n", want: false},
		{name: "marker with context", output: "foo\nsnapshot written at t=5\n", want: true},
		{name: "marker alone", output: "snapshot written\n", want: true},
		{name: "marker without trailing newline", output: "level=info msg=\"snapshot written\"", want: true},
		{name: "marker split across lines", output: "snapshot\nwritten\n", want: false},
		{name: "marker mid stream", output: "connecting\nuploading wal segment\nsnapshot written to s3\nidle\n", want: true},
		{name: "marker after oversized line", output: strings.Repeat("x", 2<<20) + "\nsnapshot written\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snapshotWritten(tt.output); got != tt.want {
				t.Errorf("snapshotWritten(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}
