package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteVersion(t *testing.T) {
	prev := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = prev[0], prev[1], prev[2] })
	Version, Commit, BuildDate = "1.2.0", "abc123", "2026-01-02"

	var full bytes.Buffer
	writeVersion(&full, false)
	assert.Equal(t, "taskgraph 1.2.0 (commit abc123, built 2026-01-02, "+
		runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+")\n", full.String())

	var short bytes.Buffer
	writeVersion(&short, true)
	assert.Equal(t, "1.2.0\n", short.String())
}
