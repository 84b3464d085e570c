package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductionLogsJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Opts{Env: "production", Writer: &buf}).WithComponent("Like")

	log.Info("Like toggle committed", "post_id", "P1")
	log.Debug("hidden below info")

	out := buf.String()
	assert.Contains(t, out, `"component":"Like"`)
	assert.Contains(t, out, `"post_id":"P1"`)
	assert.Contains(t, out, "Like toggle committed")
	assert.NotContains(t, out, "hidden below info")
}

func TestDevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	New(Opts{Env: "development", Writer: &buf}).Debug("seed discarded")

	assert.Contains(t, buf.String(), "seed discarded")
}
