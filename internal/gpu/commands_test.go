package gpu

import (
	"testing"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ibd1279/vks-examples/vertex-triangle/internal/frame"
)

// outcome is what the frame loop can observe from a result: nothing, a
// rebuild request, a logged failure or a fatal error.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeOutOfDate
	outcomePresentFailed
	outcomeFatal
)

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, frame.ErrOutOfDate):
		return outcomeOutOfDate
	case errors.Is(err, frame.ErrPresentFailed):
		return outcomePresentFailed
	}
	return outcomeFatal
}

func TestAcquireOutcome(t *testing.T) {
	tests := []struct {
		name       string
		result     vks.Result
		suboptimal bool
		want       outcome
	}{
		{"success", vks.VK_SUCCESS, false, outcomeOK},
		{"suboptimal", vks.VK_SUBOPTIMAL_KHR, true, outcomeOK},
		{"out of date", vks.VK_ERROR_OUT_OF_DATE_KHR, false, outcomeOutOfDate},
		{"device lost", vks.VK_ERROR_DEVICE_LOST, false, outcomeFatal},
		{"surface lost", vks.VK_ERROR_SURFACE_LOST_KHR, false, outcomeFatal},
		{"not ready", vks.VK_NOT_READY, false, outcomeFatal},
		{"timeout", vks.VK_TIMEOUT, false, outcomeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suboptimal, err := acquireOutcome(tt.result)
			assert.Equal(t, tt.suboptimal, suboptimal)
			assert.Equal(t, tt.want, classify(err), "err: %v", err)
		})
	}
}

func TestPresentOutcome(t *testing.T) {
	tests := []struct {
		name       string
		result     vks.Result
		suboptimal bool
		want       outcome
	}{
		{"success", vks.VK_SUCCESS, false, outcomeOK},
		{"suboptimal", vks.VK_SUBOPTIMAL_KHR, true, outcomeOK},
		{"out of date", vks.VK_ERROR_OUT_OF_DATE_KHR, false, outcomeOutOfDate},
		{"device lost", vks.VK_ERROR_DEVICE_LOST, false, outcomeFatal},
		{"surface lost", vks.VK_ERROR_SURFACE_LOST_KHR, false, outcomePresentFailed},
		{"out of memory", vks.VK_ERROR_OUT_OF_HOST_MEMORY, false, outcomePresentFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suboptimal, err := presentOutcome(tt.result)
			assert.Equal(t, tt.suboptimal, suboptimal)
			assert.Equal(t, tt.want, classify(err), "err: %v", err)
		})
	}
}
