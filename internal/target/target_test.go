package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sznuper/portalwatch/internal/config"
)

func TestNewRegistry_KeepsOrder(t *testing.T) {
	reg, err := NewRegistry([]Target{
		{Name: "b", Env: "test"},
		{Name: "a", Env: "prod"},
	})
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, 2, reg.Len())
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		targets []Target
	}{
		{name: "empty", targets: nil},
		{name: "unnamed", targets: []Target{{URL: "https://x"}}},
		{name: "duplicate", targets: []Target{{Name: "a"}, {Name: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.targets)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_AllIsACopy(t *testing.T) {
	reg, err := NewRegistry([]Target{{Name: "a", Env: "prod"}})
	require.NoError(t, err)

	all := reg.All()
	all[0].Env = "mutated"
	assert.Equal(t, "prod", reg.All()[0].Env)

	found := reg.Find("a")
	require.NotNil(t, found)
	found.Env = "mutated"
	assert.Equal(t, "prod", reg.Find("a").Env)
	assert.Nil(t, reg.Find("missing"))
}

func TestFromConfig(t *testing.T) {
	reg, err := FromConfig([]config.Target{{
		Name:           "arnona-prod",
		Env:            "prod",
		URL:            "https://example.com",
		ExpectedMarker: "7570727",
		AlertTitle:     "down",
	}})
	require.NoError(t, err)
	assert.Equal(t, Target{
		Name:           "arnona-prod",
		Env:            "prod",
		URL:            "https://example.com",
		ExpectedMarker: "7570727",
		AlertTitle:     "down",
	}, reg.All()[0])
}
