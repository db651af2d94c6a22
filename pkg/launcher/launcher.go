package launcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/core-tools/hsu-launcher/pkg/envsource"
	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"
	"github.com/core-tools/hsu-launcher/pkg/ports"
	"github.com/core-tools/hsu-launcher/pkg/tools"
)

// Launcher turns a ServiceDescriptor plus the ambient environment into a
// running target process. The stages form a strict total order:
//
//	initialization hook -> configuration resolution -> log redirection -> process launch
//
// Every stage failure is fatal; there is no retry and no degraded mode. After
// a successful launch the launcher's process image is gone.
type Launcher struct {
	source envsource.Source
	runner tools.Runner
	logger logging.Logger
}

func NewLauncher(source envsource.Source, runner tools.Runner, logger logging.Logger) *Launcher {
	return &Launcher{
		source: source,
		runner: runner,
		logger: logger,
	}
}

// LaunchPlan is the fully resolved invocation: target path, positional
// arguments, environment, the port bindings behind them, and the log sink
// the target's output will land in.
type LaunchPlan struct {
	Target      string
	Args        []string
	Environment []string
	Bindings    ports.Bindings
	Sink        *LogSink
}

// Launch runs the full sequence and hands control to the target. It returns
// only on failure; on success the current process image is replaced.
func (l *Launcher) Launch(ctx context.Context, descriptor *ServiceDescriptor) error {
	if err := ValidateDescriptor(descriptor); err != nil {
		return err
	}

	if err := l.runInitHook(ctx, descriptor); err != nil {
		return err
	}

	plan, err := l.Resolve(ctx, descriptor)
	if err != nil {
		return err
	}

	if err := checkExecutable(plan.Target); err != nil {
		return err
	}

	if err := plan.Sink.Redirect(); err != nil {
		return err
	}

	// From here on, output goes to the sink the target inherits
	l.logger.Infof("Launching service, name: %s, target: %s, args: %v", descriptor.Name, plan.Target, plan.Args)

	return replaceProcess(plan.Target, plan.Args, plan.Environment)
}

// runInitHook invokes the service-initialization executable, at most once,
// before any port binding is attempted.
func (l *Launcher) runInitHook(ctx context.Context, descriptor *ServiceDescriptor) error {
	if descriptor.InitHookPath == "" {
		return nil
	}
	l.logger.Infof("Running initialization hook, service: %s, path: %s", descriptor.Name, descriptor.InitHookPath)
	if err := l.runner.Run(ctx, descriptor.InitHookPath); err != nil {
		return errors.NewExternalToolError("initialization hook failed", err).WithContext("service", descriptor.Name)
	}
	return nil
}

// Resolve performs configuration resolution only: port bindings, helper tool
// queries, discovery fetches, and option assembly. It never launches
// anything, which also makes it the dry-run entry point.
func (l *Launcher) Resolve(ctx context.Context, descriptor *ServiceDescriptor) (*LaunchPlan, error) {
	paths, err := envsource.ResolvePaths(l.source)
	if err != nil {
		return nil, err
	}

	resolver := ports.NewResolver(l.source, l.logger)
	bindings, err := resolver.Resolve(allPortSpecs(descriptor))
	if err != nil {
		return nil, err
	}

	providers := tools.NewProviders(paths.ToolsDir, descriptor.Tools, l.runner, l.logger)

	roleOrder := []ports.Role{ports.RoleMonitoring, ports.RoleSupport}

	if descriptor.debugPortEnabled() {
		debugPort, err := providers.DebugPort(ctx)
		if err != nil {
			return nil, err
		}
		if err := bindings.Set(ports.RoleDebug, debugPort); err != nil {
			return nil, err
		}
		roleOrder = append(roleOrder, ports.RoleDebug)
	}

	if descriptor.jmxPortEnabled() {
		jmxPort, err := providers.JMXPort(ctx)
		if err != nil {
			return nil, err
		}
		if err := bindings.Set(ports.RoleJMX, jmxPort); err != nil {
			return nil, err
		}
		roleOrder = append(roleOrder, ports.RoleJMX)
	}

	for _, spec := range descriptor.ServicePorts {
		if _, bound := bindings[spec.Role]; bound {
			roleOrder = append(roleOrder, spec.Role)
		}
	}

	configDir := descriptor.ConfigDir
	if configDir == "" {
		configDir, err = providers.LoggingConfigDir(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := l.fetchConfigs(ctx, descriptor, providers, configDir); err != nil {
		return nil, err
	}

	options, err := l.assembleOptions(ctx, descriptor, providers, bindings)
	if err != nil {
		return nil, err
	}

	orderedPorts, err := bindings.InOrder(roleOrder)
	if err != nil {
		return nil, err
	}

	args := []string{configDir, options.String()}
	for _, port := range orderedPorts {
		args = append(args, strconv.Itoa(port))
	}

	logDir := descriptor.LogDir
	if logDir == "" {
		logDir = paths.LogDir
	}

	environment := os.Environ()
	environment = append(environment, descriptor.Environment...)

	return &LaunchPlan{
		Target:      descriptor.Target(),
		Args:        args,
		Environment: environment,
		Bindings:    bindings,
		Sink:        NewLogSink(logDir, descriptor.Name),
	}, nil
}

// fetchConfigs pulls discovery documents and writes them under configDir.
// Any fetch failure aborts resolution before the start helper can run.
func (l *Launcher) fetchConfigs(ctx context.Context, descriptor *ServiceDescriptor, providers *tools.Providers, configDir string) error {
	if len(descriptor.FetchConfigs) == 0 {
		return nil
	}

	identity, err := envsource.ResolveIdentity(l.source)
	if err != nil {
		return err
	}

	for _, fetch := range descriptor.FetchConfigs {
		document, err := providers.FetchConfig(ctx, identity.ServiceUUID, fetch.Key)
		if err != nil {
			return err
		}
		target := filepath.Join(configDir, fetch.TargetFile)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.NewIOError("failed to create fetched config directory", err).WithContext("path", filepath.Dir(target))
		}
		if err := os.WriteFile(target, []byte(document+"\n"), 0644); err != nil {
			return errors.NewIOError("failed to write fetched config", err).WithContext("path", target).WithContext("key", fetch.Key)
		}
		l.logger.Infof("Fetched configuration, service: %s, key: %s, target: %s", descriptor.Name, fetch.Key, target)
	}
	return nil
}

// assembleOptions builds the Launch Configuration. Order: provider Java
// options, base options, port properties, CPU-derived properties, operator
// override variable, extra options, GC options last.
func (l *Launcher) assembleOptions(ctx context.Context, descriptor *ServiceDescriptor, providers *tools.Providers, bindings ports.Bindings) (*LaunchConfiguration, error) {
	options := NewLaunchConfiguration()

	if descriptor.javaOptionsEnabled() {
		raw, err := providers.JavaOptions(ctx)
		if err != nil {
			return nil, err
		}
		options.AppendRaw(raw)
	}

	options.Append(descriptor.Options.Base...)

	propertyKeys := make([]string, 0, len(descriptor.Options.PortProperties))
	for key := range descriptor.Options.PortProperties {
		propertyKeys = append(propertyKeys, key)
	}
	sort.Strings(propertyKeys)
	for _, key := range propertyKeys {
		role := descriptor.Options.PortProperties[key]
		port, bound := bindings[role]
		if !bound {
			return nil, errors.NewMissingConfigurationError("port property references an unbound role", nil).
				WithContext("service", descriptor.Name).
				WithContext("property", key).
				WithContext("role", string(role))
		}
		options.SetPortProperty(key, port)
	}

	if descriptor.Options.ThreadPoolProperty != "" {
		options.SetProperty(descriptor.Options.ThreadPoolProperty, strconv.Itoa(runtime.NumCPU()))
	}

	if descriptor.Options.ExtraEnvVar != "" {
		options.AppendRaw(envsource.GetDefault(l.source, descriptor.Options.ExtraEnvVar, ""))
	}

	options.Append(descriptor.Options.Extra...)
	options.Append(descriptor.Options.GC...)

	return options, nil
}
