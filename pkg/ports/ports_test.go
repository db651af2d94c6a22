package ports

import (
	"strconv"
	"testing"

	"github.com/core-tools/hsu-launcher/pkg/envsource"
	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func newTestResolver(env map[string]string) *Resolver {
	return NewResolver(envsource.Map(env), logging.NewNopLogger())
}

func TestVarNameDerivation(t *testing.T) {
	assert.Equal(t, "PORT_DEF_PRIMARY_PORT", StaticVarName("primary"))
	assert.Equal(t, "PORT_DEF_RAFT_RPC_PORT", StaticVarName("raft-rpc"))
	assert.Equal(t, "BOUND_PORT_DEF_CACHE_TCP_DISC_PORT", BoundVarName("cache-tcp-disc"))
}

func TestResolve_StaticPort(t *testing.T) {
	resolver := newTestResolver(map[string]string{
		"PORT_DEF_PRIMARY_PORT": "8080",
	})

	bindings, err := resolver.Resolve([]Spec{StaticSpec("primary")})
	require.NoError(t, err)
	assert.Equal(t, Bindings{"primary": 8080}, bindings)
}

func TestResolve_BoundPortIndirection(t *testing.T) {
	resolver := newTestResolver(map[string]string{
		"BOUND_PORT_DEF_RAFT_RPC_PORT": "MESOS_PORT_10001",
		"MESOS_PORT_10001":             "31857",
	})

	bindings, err := resolver.Resolve([]Spec{BoundSpec("raft-rpc", 0)})
	require.NoError(t, err)
	assert.Equal(t, 31857, bindings["raft-rpc"])
}

func TestResolve_BoundPortDefault(t *testing.T) {
	// BOUND_PORT_DEF_CACHE_TCP_DISC_PORT unset: documented default applies
	resolver := newTestResolver(nil)

	bindings, err := resolver.Resolve([]Spec{BoundSpec("cache-tcp-disc", 47500)})
	require.NoError(t, err)
	assert.Equal(t, 47500, bindings["cache-tcp-disc"])
}

func TestResolve_BoundPortTargetMissing(t *testing.T) {
	resolver := newTestResolver(map[string]string{
		"BOUND_PORT_DEF_RAFT_RPC_PORT": "MESOS_PORT_10001",
	})

	_, err := resolver.Resolve([]Spec{BoundSpec("raft-rpc", 0)})
	require.Error(t, err)
	assert.True(t, errors.IsMissingConfigurationError(err))
}

func TestResolve_MissingRequiredRole(t *testing.T) {
	resolver := newTestResolver(nil)

	bindings, err := resolver.Resolve([]Spec{StaticSpec(RoleMonitoring)})
	require.Error(t, err)
	assert.True(t, errors.IsMissingConfigurationError(err))
	assert.Nil(t, bindings)
}

func TestResolve_OptionalRoleAbsent(t *testing.T) {
	resolver := newTestResolver(nil)

	spec := StaticSpec("profiler")
	spec.Optional = true

	bindings, err := resolver.Resolve([]Spec{spec})
	require.NoError(t, err)
	_, bound := bindings["profiler"]
	assert.False(t, bound)
}

func TestResolve_InvalidPortValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "non-numeric", value: "eighty-eighty"},
		{name: "zero", value: "0"},
		{name: "negative", value: "-1"},
		{name: "one", value: "1"},
		{name: "upper bound", value: "65535"},
		{name: "above range", value: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newTestResolver(map[string]string{
				"PORT_DEF_PRIMARY_PORT": tt.value,
			})

			_, err := resolver.Resolve([]Spec{StaticSpec("primary")})
			require.Error(t, err)
			assert.True(t, errors.IsInvalidPortError(err))
		})
	}
}

func TestResolve_AggregatesAllFailures(t *testing.T) {
	resolver := newTestResolver(map[string]string{
		"PORT_DEF_SUPPORT_PORT": "not-a-port",
	})

	_, err := resolver.Resolve([]Spec{
		StaticSpec(RoleMonitoring),
		StaticSpec(RoleSupport),
		StaticSpec("primary"),
	})
	require.Error(t, err)

	// One run reports every unresolved role, not just the first
	individual := multierr.Errors(err)
	assert.Len(t, individual, 3)
	assert.True(t, errors.IsMissingConfigurationError(individual[0]))
	assert.True(t, errors.IsInvalidPortError(individual[1]))
}

func TestResolve_StaticTakesPrecedenceOverBound(t *testing.T) {
	resolver := newTestResolver(map[string]string{
		"PORT_DEF_PRIMARY_PORT":       "8080",
		"BOUND_PORT_DEF_PRIMARY_PORT": "DYN_PORT",
		"DYN_PORT":                    "31000",
	})

	spec := Spec{
		Role:     "primary",
		EnvVar:   StaticVarName("primary"),
		BoundVar: BoundVarName("primary"),
	}

	bindings, err := resolver.Resolve([]Spec{spec})
	require.NoError(t, err)
	assert.Equal(t, 8080, bindings["primary"])
}

func TestResolve_SchedulerAllocatedPort(t *testing.T) {
	// Simulates a deployment-time bound port: the scheduler allocates a real
	// free port and exposes it through the indirection convention
	allocated, err := freeport.GetFreePort()
	require.NoError(t, err)

	resolver := newTestResolver(map[string]string{
		"BOUND_PORT_DEF_RAFT_RPC_PORT": "SCHEDULER_PORT_0",
		"SCHEDULER_PORT_0":             strconv.Itoa(allocated),
	})

	bindings, err := resolver.Resolve([]Spec{BoundSpec("raft-rpc", 0)})
	require.NoError(t, err)
	assert.Equal(t, allocated, bindings["raft-rpc"])
}

func TestBindings_Set(t *testing.T) {
	bindings := make(Bindings)

	require.NoError(t, bindings.Set(RoleDebug, 5005))
	assert.Equal(t, 5005, bindings[RoleDebug])

	err := bindings.Set(RoleJMX, 0)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidPortError(err))
}

func TestBindings_InOrder(t *testing.T) {
	bindings := Bindings{
		RoleMonitoring: 9001,
		RoleSupport:    9002,
		RoleDebug:      5005,
	}

	order, err := bindings.InOrder([]Role{RoleMonitoring, RoleSupport, RoleDebug})
	require.NoError(t, err)
	assert.Equal(t, []int{9001, 9002, 5005}, order)

	_, err = bindings.InOrder([]Role{RoleMonitoring, RoleJMX})
	require.Error(t, err)
	assert.True(t, errors.IsInternalError(err))
}

func TestParsePort(t *testing.T) {
	port, err := ParsePort(" 8080\n")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = ParsePort("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidPortError(err))
}
