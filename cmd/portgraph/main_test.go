// Package main tests for the portgraph CLI application
package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_Version(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildTime string
		want      string
	}{
		{
			name:      "version with dev defaults",
			version:   "dev",
			commit:    "unknown",
			buildTime: "unknown",
			want:      "portgraph dev (commit: unknown, built: unknown)\n",
		},
		{
			name:      "version with custom values",
			version:   "v1.0.0",
			commit:    "abc123",
			buildTime: "2024-01-01",
			want:      "portgraph v1.0.0 (commit: abc123, built: 2024-01-01)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit, oldBuildTime := Version, Commit, BuildTime
			t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuildTime })
			Version, Commit, BuildTime = tt.version, tt.commit, tt.buildTime

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"version"}, &stdout, &stderr)

			assert.Equal(t, 0, code)
			assert.Equal(t, tt.want, stdout.String())
			assert.Empty(t, stderr.String())
		})
	}
}

func TestRun_Demo(t *testing.T) {
	t.Setenv("PORTGRAPH_LOG_FORMAT", "text")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"demo", "3"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "widget=display")
	assert.Contains(t, stdout.String(), "demo finished")
	assert.Contains(t, stdout.String(), "slider=-3")
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown command", args: []string{"help"}, want: "usage:"},
		{name: "bad step count", args: []string{"demo", "zero"}, want: "invalid step count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, Commit)
	assert.NotEmpty(t, BuildTime)
}
