package stacktrace

import "strings"

// InternalPaths extracts "internal/<pkg>/<file>.go:<line>" frames from a
// debug.Stack dump, dropping runtime and third-party frames.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)

		start := strings.Index(line, "/internal/")
		if start == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[start+1:]
		if end := strings.IndexByte(frame, ' '); end != -1 {
			frame = frame[:end]
		}
		paths = append(paths, frame)
	}

	return paths
}
