package yolods

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}

	var echo strings.Builder
	r := ExecRunner{Echo: &echo, Dir: t.TempDir()}
	out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", out)
	assert.Contains(t, echo.String(), "out\n")

	_, err = ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom 1>&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}
