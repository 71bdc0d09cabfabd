package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, NewRegistry().Register(reg))

	// Double registration of the same names must fail loudly.
	require.Error(t, NewRegistry().Register(reg))
}

func TestDefaultIsSingleton(t *testing.T) {
	require.Same(t, Default(), Default())
}
