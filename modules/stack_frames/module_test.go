package stack_frames

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/tagset"
)

func frame(name string, pixels ...float64) *dataset.Dataset {
	d := dataset.New(name, tagset.New("RAW"))
	d.Pixels = pixels
	d.Shape = []int{len(pixels)}
	return d
}

func TestStackFramesMedian(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{
		frame("f1", 1, 10, 100),
		frame("f2", 3, 30, 300),
		frame("f3", 2, 20, 200),
	}

	out, err := OnStackFrames(context.Background(), run, in,
		&Input{Method: "median", Suffix: "_stack"})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "f1_stack", out[0].Name)
	assert.Equal(t, []float64{2, 20, 200}, out[0].Pixels)
	assert.Equal(t, 3, out[0].Header["NCOMBINE"])
}

func TestStackFramesMean(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{frame("f1", 1, 2), frame("f2", 3, 6)}

	out, err := OnStackFrames(context.Background(), run, in,
		&Input{Method: "mean", Suffix: "_stack"})

	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, out[0].Pixels)
}

func TestStackFramesMergesSideStream(t *testing.T) {
	run := pipeline.NewContext(nil)
	run.AppendToStream("lampOff", frame("off1", 10, 10))
	in := []*dataset.Dataset{frame("on1", 14, 14)}

	out, err := OnStackFrames(context.Background(), run, in,
		&Input{Method: "mean", FromStream: "lampOff", Suffix: "_stack"})

	require.NoError(t, err)
	assert.Equal(t, []float64{12, 12}, out[0].Pixels)
	assert.Equal(t, 2, out[0].Header["NCOMBINE"])
	assert.Empty(t, run.Stream("lampOff"), "side stream should be drained")
}

func TestStackFramesEmptyInputFails(t *testing.T) {
	run := pipeline.NewContext(nil)

	_, err := OnStackFrames(context.Background(), run, nil, &Input{Method: "median"})

	require.ErrorContains(t, err, "no frames to stack")
}

func TestStackFramesSizeMismatchFails(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{frame("f1", 1, 2), frame("f2", 1)}

	_, err := OnStackFrames(context.Background(), run, in, &Input{Method: "median"})

	require.ErrorContains(t, err, "cannot stack")
}

func TestStackFramesUnknownMethodFails(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{frame("f1", 1)}

	_, err := OnStackFrames(context.Background(), run, in, &Input{Method: "mode"})

	require.ErrorContains(t, err, "unknown stacking method")
}
