package separate_flats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/tagset"
)

func flat(name string, lampOff bool) *dataset.Dataset {
	tags := []string{"FLAT", "LAMPON"}
	if lampOff {
		tags = []string{"FLAT", "LAMPOFF"}
	}
	d := dataset.New(name, tagset.New(tags...))
	d.Pixels = []float64{1}
	return d
}

func TestSeparateFlatsMovesLampOffToSideStream(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{flat("on1", false), flat("off1", true), flat("on2", false), flat("off2", true)}

	out, err := OnSeparateFlats(context.Background(), run, in, &Input{OffStream: "lampOff"})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "on1", out[0].Name)
	assert.Equal(t, "on2", out[1].Name)

	side := run.Stream("lampOff")
	require.Len(t, side, 2)
	assert.Equal(t, "off1", side[0].Name)
	assert.Equal(t, "off2", side[1].Name)
}

func TestSeparateFlatsAllLampOnLeavesStreamUntouched(t *testing.T) {
	run := pipeline.NewContext(nil)
	in := []*dataset.Dataset{flat("on1", false)}

	out, err := OnSeparateFlats(context.Background(), run, in, &Input{OffStream: "lampOff"})

	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Empty(t, run.Stream("lampOff"))
}
