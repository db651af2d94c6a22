package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/core-tools/hsu-launcher/pkg/envsource"
	"github.com/core-tools/hsu-launcher/pkg/launcher"
	"github.com/core-tools/hsu-launcher/pkg/logging"
	"github.com/core-tools/hsu-launcher/pkg/tools"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Descriptor string `long:"descriptor" short:"d" description:"path to the service descriptor YAML file" required:"true"`
	LogLevel   string `long:"log-level" description:"launcher log level" default:"info"`
	DryRun     bool   `long:"dry-run" description:"resolve configuration and print the invocation without launching"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logging.NewZapLogger(logging.ZapConfig{
		Level:  opts.LogLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(
		logPrefix("hsu-launcher"), logging.LogFuncs{
			Debugf: zapLogger.Debugf,
			Infof:  zapLogger.Infof,
			Warnf:  zapLogger.Warnf,
			Errorf: zapLogger.Errorf,
		})

	logger.Infof("opts: %+v", opts)

	descriptor, err := launcher.LoadDescriptorFromFile(opts.Descriptor)
	if err != nil {
		logger.Errorf("Failed to load service descriptor: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	runner := tools.NewExecRunner(logger)
	serviceLauncher := launcher.NewLauncher(envsource.OS(), runner, logger)

	if opts.DryRun {
		plan, err := serviceLauncher.Resolve(ctx, descriptor)
		if err != nil {
			logger.Errorf("Configuration resolution failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("target: %s\n", plan.Target)
		fmt.Printf("args: %s\n", strings.Join(plan.Args, " "))
		fmt.Printf("stdout sink: %s\n", plan.Sink.StdoutPath)
		fmt.Printf("stderr sink: %s\n", plan.Sink.StderrPath)
		return
	}

	// Launch only returns on failure; on success the process image is
	// replaced by the target.
	err = serviceLauncher.Launch(ctx, descriptor)
	logger.Errorf("Launch failed, service: %s, error: %v", descriptor.Name, err)
	os.Exit(1)
}
