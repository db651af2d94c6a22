package launcher

import (
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/ports"
	"github.com/core-tools/hsu-launcher/pkg/tools"

	"gopkg.in/yaml.v3"
)

// ServiceDescriptor identifies one launchable unit: its name, the port roles
// it requires, the binary or start-helper to hand control to, and the log
// directory its output lands in.
type ServiceDescriptor struct {
	Name string `yaml:"name"`

	// Exactly one of BinaryPath and StartHelperPath must be set. Both are
	// invoked with the positional convention
	// (config-dir, options-string, monitoring, support, debug, jmx, [service ports...]).
	BinaryPath      string `yaml:"binary_path,omitempty"`
	StartHelperPath string `yaml:"start_helper_path,omitempty"`

	// ConfigDir is the first positional argument. When empty it is resolved
	// at launch time through the logging-configuration-directory provider.
	ConfigDir string `yaml:"config_dir,omitempty"`

	LogDir string `yaml:"log_dir,omitempty"`

	// InitHookPath points at the service-initialization executable run
	// before anything else. Optional; nonzero exit aborts the launch.
	InitHookPath string `yaml:"init_hook_path,omitempty"`

	// ServicePorts are the service-specific port roles, in the positional
	// order the target binary expects them after the four standard ports.
	ServicePorts []ports.Spec `yaml:"service_ports,omitempty"`

	// MonitoringPort and SupportPort override the conventional
	// PORT_DEF_MONITORING_PORT / PORT_DEF_SUPPORT_PORT specs.
	MonitoringPort *ports.Spec `yaml:"monitoring_port,omitempty"`
	SupportPort    *ports.Spec `yaml:"support_port,omitempty"`

	// DebugPort and JMXPort control whether the corresponding provider tools
	// are consulted. Pointers distinguish unset (default true) from false.
	DebugPort *bool `yaml:"debug_port,omitempty"`
	JMXPort   *bool `yaml:"jmx_port,omitempty"`

	Options OptionsConfig `yaml:"options,omitempty"`

	// FetchConfigs are discovery documents fetched before launch and written
	// under ConfigDir. Any fetch failure aborts the launch.
	FetchConfigs []FetchConfigSpec `yaml:"fetch_configs,omitempty"`

	// Tools overrides the conventional helper tool names.
	Tools tools.ToolNames `yaml:"tools,omitempty"`

	// Environment entries ("KEY=value") added to the target's environment.
	Environment []string `yaml:"environment,omitempty"`
}

// FetchConfigSpec names one discovery document and the file it is written to,
// relative to ConfigDir.
type FetchConfigSpec struct {
	Key        string `yaml:"key"`
	TargetFile string `yaml:"target_file"`
}

// OptionsConfig configures Launch Configuration assembly. Assembly order is:
// provider Java options, Base, per-port properties, ExtraEnvVar contents,
// Extra, then GC appended last. Later entries override earlier ones.
type OptionsConfig struct {
	// JavaOptions controls whether the Java-options provider tool is
	// consulted for the base of the options string. Default true.
	JavaOptions *bool `yaml:"java_options,omitempty"`

	Base []string `yaml:"base,omitempty"`
	GC   []string `yaml:"gc,omitempty"`

	// PortProperties maps a system property name to a port role; the
	// resolved port is injected as -Dname=port.
	PortProperties map[string]ports.Role `yaml:"port_properties,omitempty"`

	// ThreadPoolProperty, when set, is injected as -Dname=<cpu count>.
	ThreadPoolProperty string `yaml:"thread_pool_property,omitempty"`

	// ExtraEnvVar names an operator-facing environment variable whose value
	// is appended verbatim (the RAFT_OPTS-style tuning knob). Unset
	// variables contribute nothing.
	ExtraEnvVar string `yaml:"extra_env_var,omitempty"`

	// Extra options appended after everything except GC.
	Extra []string `yaml:"extra,omitempty"`
}

// LoadDescriptorFromFile loads a service descriptor from a YAML file.
func LoadDescriptorFromFile(filename string) (*ServiceDescriptor, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read descriptor file", err).WithContext("filename", filename)
	}

	var descriptor ServiceDescriptor
	if err := yaml.Unmarshal(data, &descriptor); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML descriptor", err).WithContext("filename", filename)
	}

	setDescriptorDefaults(&descriptor)

	if err := ValidateDescriptor(&descriptor); err != nil {
		return nil, err
	}

	return &descriptor, nil
}

func setDescriptorDefaults(descriptor *ServiceDescriptor) {
	if descriptor.MonitoringPort == nil {
		spec := ports.StaticSpec(ports.RoleMonitoring)
		descriptor.MonitoringPort = &spec
	}
	if descriptor.SupportPort == nil {
		spec := ports.StaticSpec(ports.RoleSupport)
		descriptor.SupportPort = &spec
	}
}

// ValidateDescriptor validates the descriptor structure. Filesystem checks
// (binary exists, is executable) happen at launch time, not here.
func ValidateDescriptor(descriptor *ServiceDescriptor) error {
	if descriptor == nil {
		return errors.NewValidationError("descriptor cannot be nil", nil)
	}
	if descriptor.Name == "" {
		return errors.NewValidationError("service name is required", nil)
	}
	if descriptor.BinaryPath == "" && descriptor.StartHelperPath == "" {
		return errors.NewValidationError("either binary_path or start_helper_path is required", nil).WithContext("service", descriptor.Name)
	}
	if descriptor.BinaryPath != "" && descriptor.StartHelperPath != "" {
		return errors.NewValidationError("binary_path and start_helper_path are mutually exclusive", nil).WithContext("service", descriptor.Name)
	}

	seen := make(map[ports.Role]bool)
	for _, spec := range allPortSpecs(descriptor) {
		if spec.Role == "" {
			return errors.NewValidationError("port spec role cannot be empty", nil).WithContext("service", descriptor.Name)
		}
		if seen[spec.Role] {
			return errors.NewValidationError("duplicate port role", nil).WithContext("service", descriptor.Name).WithContext("role", string(spec.Role))
		}
		seen[spec.Role] = true
		if spec.EnvVar == "" && spec.BoundVar == "" && spec.Default == 0 && !spec.Optional {
			return errors.NewValidationError("port spec has no resolution source", nil).WithContext("service", descriptor.Name).WithContext("role", string(spec.Role))
		}
	}

	for _, fetch := range descriptor.FetchConfigs {
		if fetch.Key == "" {
			return errors.NewValidationError("fetch config key cannot be empty", nil).WithContext("service", descriptor.Name)
		}
		if fetch.TargetFile == "" {
			return errors.NewValidationError("fetch config target file cannot be empty", nil).WithContext("service", descriptor.Name).WithContext("key", fetch.Key)
		}
		if filepath.IsAbs(fetch.TargetFile) {
			return errors.NewValidationError("fetch config target file must be relative to config dir", nil).WithContext("service", descriptor.Name).WithContext("target_file", fetch.TargetFile)
		}
	}

	return nil
}

// Target returns the executable control is handed to.
func (d *ServiceDescriptor) Target() string {
	if d.StartHelperPath != "" {
		return d.StartHelperPath
	}
	return d.BinaryPath
}

func (d *ServiceDescriptor) debugPortEnabled() bool {
	return d.DebugPort == nil || *d.DebugPort
}

func (d *ServiceDescriptor) jmxPortEnabled() bool {
	return d.JMXPort == nil || *d.JMXPort
}

func (d *ServiceDescriptor) javaOptionsEnabled() bool {
	return d.Options.JavaOptions == nil || *d.Options.JavaOptions
}

func allPortSpecs(descriptor *ServiceDescriptor) []ports.Spec {
	specs := make([]ports.Spec, 0, len(descriptor.ServicePorts)+2)
	if descriptor.MonitoringPort != nil {
		specs = append(specs, *descriptor.MonitoringPort)
	}
	if descriptor.SupportPort != nil {
		specs = append(specs, *descriptor.SupportPort)
	}
	specs = append(specs, descriptor.ServicePorts...)
	return specs
}
