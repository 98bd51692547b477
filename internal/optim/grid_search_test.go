package optim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cherrycore/internal/config"
	"github.com/san-kum/cherrycore/internal/experiment"
)

func base() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles = 30
	cfg.Radius = 0.08
	cfg.Frames = 4
	cfg.Seed = 11
	return cfg
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
}

func TestGridSearchVisitsEveryCell(t *testing.T) {
	g := NewGridSearch([]string{"repulsion", "damping"}, [][]float64{{0.5, 1, 2}, {0.9, 0.99}})
	points, best, err := g.Search(context.Background(), base(), "energy", experiment.WithProvider(experiment.ProviderNone))
	require.NoError(t, err)
	require.Len(t, points, 6)

	assert.Equal(t, 0.5, points[0].Params["repulsion"])
	assert.Equal(t, 0.9, points[0].Params["damping"])
	assert.Equal(t, 2.0, points[5].Params["repulsion"])
	for _, p := range points {
		assert.LessOrEqual(t, best.Value, p.Value)
	}
}

func TestGridSearchMaximize(t *testing.T) {
	g := NewGridSearch([]string{"repulsion"}, [][]float64{{0.5, 4}}).Maximize()
	points, best, err := g.Search(context.Background(), base(), "energy", experiment.WithProvider(experiment.ProviderNone))
	require.NoError(t, err)
	require.Len(t, points, 2)
	for _, p := range points {
		assert.GreaterOrEqual(t, best.Value, p.Value)
	}
	assert.Equal(t, 4.0, best.Params["repulsion"])
}

func TestGridSearchErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewGridSearch([]string{"repulsion"}, nil).Search(ctx, base(), "energy")
	assert.Error(t, err)

	_, _, err = NewGridSearch([]string{"gravity"}, [][]float64{{1}}).Search(ctx, base(), "energy")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = NewGridSearch([]string{"repulsion"}, [][]float64{{1}}).Search(ctx, base(), "nope",
		experiment.WithProvider(experiment.ProviderNone))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = NewGridSearch([]string{"repulsion"}, [][]float64{{1}}).Search(cancelled, base(), "energy")
	assert.ErrorIs(t, err, context.Canceled)
}
