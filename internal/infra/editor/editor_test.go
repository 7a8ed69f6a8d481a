package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/issuetree/internal/testutil"
)

func TestEditor_Edit(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		editor   string
		visual   string
		wantProg string
		wantArgs []string
	}{
		{name: "configured with args", command: "code --wait", editor: "nano", wantProg: "code", wantArgs: []string{"--wait", "/tmp/7.md"}},
		{name: "EDITOR", editor: "nano", visual: "emacs", wantProg: "nano", wantArgs: []string{"/tmp/7.md"}},
		{name: "VISUAL", visual: "emacs -nw", wantProg: "emacs", wantArgs: []string{"-nw", "/tmp/7.md"}},
		{name: "default", wantProg: "vim", wantArgs: []string{"/tmp/7.md"}},
		{name: "blank config", command: "   ", wantProg: "vim", wantArgs: []string{"/tmp/7.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EDITOR", tt.editor)
			t.Setenv("VISUAL", tt.visual)
			exec := &testutil.MockExecutor{}

			require.NoError(t, New(exec, tt.command).Edit(context.Background(), "/tmp/7.md"))

			require.Len(t, exec.Interactive, 1)
			assert.Equal(t, tt.wantProg, exec.Interactive[0].Program)
			assert.Equal(t, tt.wantArgs, exec.Interactive[0].Args)
		})
	}
}

func TestEditor_Edit_Failure(t *testing.T) {
	exec := &testutil.MockExecutor{InteractErr: errors.New("exit status 1")}

	err := New(exec, "vi").Edit(context.Background(), "/tmp/7.md")
	assert.ErrorContains(t, err, "failed to run editor vi")
}
