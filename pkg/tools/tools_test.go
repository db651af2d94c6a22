package tools

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHelperScript writes an executable shell script into dir
func writeHelperScript(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("helper scripts require a POSIX shell")
	}
}

func TestExecRunner_Output(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	path := writeHelperScript(t, dir, "get_debug_port", "echo 5005")

	runner := NewExecRunner(logging.NewNopLogger())
	output, err := runner.Output(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "5005", output)
}

func TestExecRunner_Output_NonzeroExit(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	path := writeHelperScript(t, dir, "fetch_config", "echo 'boom' >&2; exit 1")

	runner := NewExecRunner(logging.NewNopLogger())
	_, err := runner.Output(context.Background(), path, "svc-1234", "initial-config")
	require.Error(t, err)
	assert.True(t, errors.IsExternalToolError(err))
}

func TestExecRunner_Output_Empty(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	path := writeHelperScript(t, dir, "get_jmx_port", "true")

	runner := NewExecRunner(logging.NewNopLogger())
	_, err := runner.Output(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsExternalToolError(err))
}

func TestExecRunner_Output_MissingBinary(t *testing.T) {
	runner := NewExecRunner(logging.NewNopLogger())
	_, err := runner.Output(context.Background(), filepath.Join(t.TempDir(), "no-such-tool"))
	require.Error(t, err)
	assert.True(t, errors.IsExternalToolError(err))
}

func TestExecRunner_Run(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "initialized")
	path := writeHelperScript(t, dir, "service_init", "touch "+marker)

	runner := NewExecRunner(logging.NewNopLogger())
	require.NoError(t, runner.Run(context.Background(), path))
	assert.FileExists(t, marker)
}

// fakeRunner serves canned outputs keyed by tool base name
type fakeRunner struct {
	outputs map[string]string
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, path string, args ...string) error {
	f.calls = append(f.calls, filepath.Base(path))
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, path string, args ...string) (string, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	output, ok := f.outputs[name]
	if !ok {
		return "", errors.NewExternalToolError("helper tool failed", nil).WithContext("path", path)
	}
	return output, nil
}

func TestProviders_SingleValueTools(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"get_debug_port":         "5005",
		"get_jmx_port":           "9010",
		"get_java_options":       "-Xms512m -Xmx2g",
		"get_logging_config_dir": "/opt/svc/conf/logging",
		"get_local_ip":           "10.1.2.3",
	}}
	providers := NewProviders("/opt/tools", ToolNames{}, runner, logging.NewNopLogger())
	ctx := context.Background()

	debugPort, err := providers.DebugPort(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5005, debugPort)

	jmxPort, err := providers.JMXPort(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9010, jmxPort)

	javaOptions, err := providers.JavaOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-Xms512m -Xmx2g", javaOptions)

	loggingDir, err := providers.LoggingConfigDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/opt/svc/conf/logging", loggingDir)

	localIP, err := providers.LocalIP(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", localIP)
}

func TestProviders_PortToolReturnsGarbage(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"get_debug_port": "not-a-port",
	}}
	providers := NewProviders("/opt/tools", ToolNames{}, runner, logging.NewNopLogger())

	_, err := providers.DebugPort(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidPortError(err))
}

func TestProviders_CustomToolNames(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"debugPort.sh": "5005",
	}}
	providers := NewProviders("/opt/tools", ToolNames{DebugPort: "debugPort.sh"}, runner, logging.NewNopLogger())

	port, err := providers.DebugPort(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5005, port)
	assert.Contains(t, runner.calls, "debugPort.sh")
}

func TestProviders_FetchConfigInto(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"fetch_config": `{"nodes": ["10.0.0.1:2181", "10.0.0.2:2181"], "quorum": 2}`,
	}}
	providers := NewProviders("/opt/tools", ToolNames{}, runner, logging.NewNopLogger())

	var document struct {
		Nodes  []string `yaml:"nodes"`
		Quorum int      `yaml:"quorum"`
	}
	err := providers.FetchConfigInto(context.Background(), "svc-1234", "initial-config", &document)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:2181", "10.0.0.2:2181"}, document.Nodes)
	assert.Equal(t, 2, document.Quorum)
}

func TestProviders_FetchConfigFailureIsFatal(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{}}
	providers := NewProviders("/opt/tools", ToolNames{}, runner, logging.NewNopLogger())

	var document map[string]interface{}
	err := providers.FetchConfigInto(context.Background(), "svc-1234", "initial-config", &document)
	require.Error(t, err)
	assert.True(t, errors.IsExternalToolError(err))
}

func TestProviders_FetchConfigInto_MalformedDocument(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"fetch_config": "{\tnot yaml at all ]",
	}}
	providers := NewProviders("/opt/tools", ToolNames{}, runner, logging.NewNopLogger())

	var document map[string]interface{}
	err := providers.FetchConfigInto(context.Background(), "svc-1234", "initial-config", &document)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, strings.Contains(err.Error(), "external_tool"))
}
