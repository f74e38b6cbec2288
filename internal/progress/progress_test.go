package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartSpinner_Disabled(t *testing.T) {
	var buf bytes.Buffer
	stop := StartSpinner(&buf, false, "indexing")
	stop()
	assert.Zero(t, buf.Len())
}

func TestStartSpinner_StopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	stop := StartSpinner(&buf, true, "indexing articles")
	time.Sleep(300 * time.Millisecond)
	stop()
	stop()
	assert.Contains(t, buf.String(), "indexing articles")
}
