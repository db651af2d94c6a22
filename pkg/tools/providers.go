package tools

import (
	"context"
	"path/filepath"

	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"
	"github.com/core-tools/hsu-launcher/pkg/ports"

	"gopkg.in/yaml.v3"
)

// ToolNames holds the file names of the helper executables under the tools
// directory. Zero values fall back to the conventional names.
type ToolNames struct {
	DebugPort        string `yaml:"debug_port,omitempty"`
	JMXPort          string `yaml:"jmx_port,omitempty"`
	JavaOptions      string `yaml:"java_options,omitempty"`
	LoggingConfigDir string `yaml:"logging_config_dir,omitempty"`
	ConfigFetch      string `yaml:"config_fetch,omitempty"`
	LocalIP          string `yaml:"local_ip,omitempty"`
}

func defaultToolNames() ToolNames {
	return ToolNames{
		DebugPort:        "get_debug_port",
		JMXPort:          "get_jmx_port",
		JavaOptions:      "get_java_options",
		LoggingConfigDir: "get_logging_config_dir",
		ConfigFetch:      "fetch_config",
		LocalIP:          "get_local_ip",
	}
}

// Providers exposes the external collaborator interfaces the launchers
// consume: single-value providers for debug/JMX ports and Java options, the
// logging configuration directory provider, and the discovery config-fetch
// tool. Every call is synchronous and its failure is fatal to configuration
// resolution.
type Providers struct {
	toolsDir string
	names    ToolNames
	runner   Runner
	logger   logging.Logger
}

func NewProviders(toolsDir string, names ToolNames, runner Runner, logger logging.Logger) *Providers {
	defaults := defaultToolNames()
	if names.DebugPort == "" {
		names.DebugPort = defaults.DebugPort
	}
	if names.JMXPort == "" {
		names.JMXPort = defaults.JMXPort
	}
	if names.JavaOptions == "" {
		names.JavaOptions = defaults.JavaOptions
	}
	if names.LoggingConfigDir == "" {
		names.LoggingConfigDir = defaults.LoggingConfigDir
	}
	if names.ConfigFetch == "" {
		names.ConfigFetch = defaults.ConfigFetch
	}
	if names.LocalIP == "" {
		names.LocalIP = defaults.LocalIP
	}
	return &Providers{
		toolsDir: toolsDir,
		names:    names,
		runner:   runner,
		logger:   logger,
	}
}

func (p *Providers) toolPath(name string) string {
	return filepath.Join(p.toolsDir, name)
}

// DebugPort returns the JVM debug port assigned to this instance.
func (p *Providers) DebugPort(ctx context.Context) (int, error) {
	return p.portFromTool(ctx, p.names.DebugPort)
}

// JMXPort returns the JMX port assigned to this instance.
func (p *Providers) JMXPort(ctx context.Context) (int, error) {
	return p.portFromTool(ctx, p.names.JMXPort)
}

func (p *Providers) portFromTool(ctx context.Context, name string) (int, error) {
	output, err := p.runner.Output(ctx, p.toolPath(name))
	if err != nil {
		return 0, err
	}
	port, err := ports.ParsePort(output)
	if err != nil {
		if domainErr, ok := err.(*errors.DomainError); ok {
			return 0, domainErr.WithContext("tool", name)
		}
		return 0, err
	}
	return port, nil
}

// JavaOptions returns the base JVM options string for this host.
func (p *Providers) JavaOptions(ctx context.Context) (string, error) {
	return p.runner.Output(ctx, p.toolPath(p.names.JavaOptions))
}

// LoggingConfigDir returns the directory holding the service's logging
// properties.
func (p *Providers) LoggingConfigDir(ctx context.Context) (string, error) {
	return p.runner.Output(ctx, p.toolPath(p.names.LoggingConfigDir))
}

// LocalIP returns the machine-local IP as detected by the helper.
func (p *Providers) LocalIP(ctx context.Context) (string, error) {
	return p.runner.Output(ctx, p.toolPath(p.names.LocalIP))
}

// FetchConfig fetches the named configuration document for a service from
// discovery and returns the raw JSON/YAML text.
func (p *Providers) FetchConfig(ctx context.Context, serviceUUID string, key string) (string, error) {
	return p.runner.Output(ctx, p.toolPath(p.names.ConfigFetch), serviceUUID, key)
}

// FetchConfigInto fetches the named configuration document and decodes it
// into out. YAML decoding also accepts JSON documents.
func (p *Providers) FetchConfigInto(ctx context.Context, serviceUUID string, key string, out interface{}) error {
	document, err := p.FetchConfig(ctx, serviceUUID, key)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(document), out); err != nil {
		return errors.NewValidationError("failed to parse fetched configuration document", err).
			WithContext("service_uuid", serviceUUID).
			WithContext("key", key)
	}
	return nil
}
