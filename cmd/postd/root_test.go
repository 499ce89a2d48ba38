package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRoutesCommand(t *testing.T) {
	out := run(t, "routes")
	assert.Contains(t, out, "VERB")
	assert.Contains(t, out, "/api/posts/:author?")
	assert.Contains(t, out, "createPost")
	assert.Contains(t, out, "user:session:string!")
}

func TestRoutesSyncsCommand(t *testing.T) {
	out := run(t, "routes", "--syncs")
	assert.Contains(t, out, `"createPost"`)
	assert.Contains(t, out, `"Rewards"`)
}
