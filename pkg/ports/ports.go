package ports

import (
	"strconv"
	"strings"

	"github.com/core-tools/hsu-launcher/pkg/envsource"
	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"

	"go.uber.org/multierr"
)

// Role is the logical name of a port a service needs ("monitoring",
// "raft-rpc"). Role names are lowercase with dashes; the derived environment
// variable names are uppercase with underscores.
type Role string

// Standard roles every service carries
const (
	RoleMonitoring Role = "monitoring"
	RoleSupport    Role = "support"
	RoleDebug      Role = "debug"
	RoleJMX        Role = "jmx"
)

// Spec describes how one port role is resolved from the environment.
//
// Resolution order: static variable, then bound-port indirection, then
// default. A bound-port variable holds the NAME of another variable whose
// value is the actual port (the shell scripts' ${!BOUND_PORT_DEF_X}).
type Spec struct {
	Role     Role   `yaml:"role"`
	EnvVar   string `yaml:"env_var,omitempty"`
	BoundVar string `yaml:"bound_var,omitempty"`
	Default  int    `yaml:"default,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// StaticSpec returns a Spec resolved from the conventional PORT_DEF_<ROLE>_PORT variable.
func StaticSpec(role Role) Spec {
	return Spec{Role: role, EnvVar: StaticVarName(role)}
}

// BoundSpec returns a Spec resolved through the conventional
// BOUND_PORT_DEF_<ROLE>_PORT indirection, falling back to defaultPort when
// the indirection variable itself is unset.
func BoundSpec(role Role, defaultPort int) Spec {
	return Spec{Role: role, BoundVar: BoundVarName(role), Default: defaultPort}
}

// StaticVarName derives the static port variable name for a role,
// e.g. "primary" -> "PORT_DEF_PRIMARY_PORT".
func StaticVarName(role Role) string {
	return "PORT_DEF_" + roleToVarFragment(role) + "_PORT"
}

// BoundVarName derives the bound-port indirection variable name for a role,
// e.g. "cache-tcp-disc" -> "BOUND_PORT_DEF_CACHE_TCP_DISC_PORT".
func BoundVarName(role Role) string {
	return "BOUND_PORT_DEF_" + roleToVarFragment(role) + "_PORT"
}

func roleToVarFragment(role Role) string {
	return strings.ToUpper(strings.ReplaceAll(string(role), "-", "_"))
}

// Bindings maps resolved roles to concrete port numbers.
type Bindings map[Role]int

// Set validates and stores one binding. Tool-provided ports (debug, JMX) go
// through here so they get the same range check as environment ports.
func (b Bindings) Set(role Role, port int) error {
	if err := ValidatePortNumber(port); err != nil {
		return err.WithContext("role", string(role))
	}
	b[role] = port
	return nil
}

// InOrder returns the port numbers for roles in the given order. Every role
// must be bound; a missing role here means the launcher sequenced its stages
// incorrectly.
func (b Bindings) InOrder(roles []Role) ([]int, error) {
	result := make([]int, 0, len(roles))
	for _, role := range roles {
		port, ok := b[role]
		if !ok {
			return nil, errors.NewInternalError("port role is not bound", nil).WithContext("role", string(role))
		}
		result = append(result, port)
	}
	return result, nil
}

// ValidatePortNumber checks that port is an integer strictly between 1 and 65535.
func ValidatePortNumber(port int) *errors.DomainError {
	if port <= 1 || port >= 65535 {
		return errors.NewInvalidPortError("port must be strictly between 1 and 65535", nil).WithContext("port", port)
	}
	return nil
}

// ParsePort parses and range-checks a textual port value.
func ParsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.NewInvalidPortError("port value is not an integer", err).WithContext("value", value)
	}
	if verr := ValidatePortNumber(port); verr != nil {
		return 0, verr
	}
	return port, nil
}

// Resolver resolves port Specs against an environment Source.
type Resolver struct {
	source envsource.Source
	logger logging.Logger
}

func NewResolver(source envsource.Source, logger logging.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logger,
	}
}

// Resolve resolves all specs, aggregating every failure so a single run
// reports the full set of unresolved roles. On any error no bindings are
// returned.
func (r *Resolver) Resolve(specs []Spec) (Bindings, error) {
	bindings := make(Bindings, len(specs))
	var errs error
	for _, spec := range specs {
		port, ok, err := r.resolveOne(spec)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !ok {
			continue // optional and absent
		}
		bindings[spec.Role] = port
		r.logger.Debugf("Resolved port, role: %s, port: %d", spec.Role, port)
	}
	if errs != nil {
		return nil, errs
	}
	return bindings, nil
}

func (r *Resolver) resolveOne(spec Spec) (int, bool, error) {
	if spec.EnvVar != "" {
		if value, ok := r.source.Lookup(spec.EnvVar); ok && value != "" {
			port, err := ParsePort(value)
			if err != nil {
				return 0, false, wrapPortError(err, spec, spec.EnvVar)
			}
			return port, true, nil
		}
	}

	if spec.BoundVar != "" {
		if target, ok := r.source.Lookup(spec.BoundVar); ok && target != "" {
			// Double indirection: the bound variable names the variable
			// holding the real port.
			value, ok := r.source.Lookup(target)
			if !ok || value == "" {
				return 0, false, errors.NewMissingConfigurationError("bound port indirection target is not set", nil).
					WithContext("role", string(spec.Role)).
					WithContext("bound_var", spec.BoundVar).
					WithContext("target", target)
			}
			port, err := ParsePort(value)
			if err != nil {
				return 0, false, wrapPortError(err, spec, target)
			}
			return port, true, nil
		}
	}

	if spec.Default != 0 {
		if verr := ValidatePortNumber(spec.Default); verr != nil {
			return 0, false, verr.WithContext("role", string(spec.Role))
		}
		return spec.Default, true, nil
	}

	if spec.Optional {
		return 0, false, nil
	}

	return 0, false, errors.NewMissingConfigurationError("required port role is unresolved", nil).
		WithContext("role", string(spec.Role)).
		WithContext("env_var", spec.EnvVar).
		WithContext("bound_var", spec.BoundVar)
}

func wrapPortError(err error, spec Spec, varName string) error {
	if domainErr, ok := err.(*errors.DomainError); ok {
		return domainErr.WithContext("role", string(spec.Role)).WithContext("env_var", varName)
	}
	return err
}
