package envsource

import (
	"os"
	"strconv"

	"github.com/core-tools/hsu-launcher/pkg/errors"

	"github.com/google/uuid"
)

// Well-known environment keys shared by every launchable service
const (
	KeyServiceToolsDir     = "SERVICE_TOOLS_DIR"
	KeyServicePackageDir   = "SERVICE_PACKAGE_DIR"
	KeyServiceLogDir       = "SERVICE_LOG_DIR"
	KeyServiceDataDir      = "SERVICE_DATA_DIR"
	KeyServiceUUID         = "SERVICE_UUID"
	KeyServiceInstanceUUID = "SERVICE_INSTANCE_UUID"
)

// Source is an explicit key-value lookup replacing ad-hoc reads of the global
// environment. Components receive a Source once at construction and never
// consult the process environment directly.
type Source interface {
	Lookup(key string) (string, bool)
}

type osSource struct{}

func (osSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// OS returns a Source backed by the process environment.
func OS() Source {
	return osSource{}
}

// Map returns a Source backed by a fixed map, for tests and dry runs.
func Map(m map[string]string) Source {
	return mapSource(m)
}

type mapSource map[string]string

func (m mapSource) Lookup(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// Get returns the value for key or a MissingConfiguration error if it is
// absent or empty.
func Get(source Source, key string) (string, error) {
	value, ok := source.Lookup(key)
	if !ok || value == "" {
		return "", errors.NewMissingConfigurationError("required environment value is not set", nil).WithContext("key", key)
	}
	return value, nil
}

// GetDefault returns the value for key, or fallback if it is absent or empty.
func GetDefault(source Source, key string, fallback string) string {
	value, ok := source.Lookup(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// GetInt returns the integer value for key or a validation error if the value
// is present but not an integer.
func GetInt(source Source, key string) (int, error) {
	value, err := Get(source, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.NewValidationError("environment value is not an integer", err).WithContext("key", key).WithContext("value", value)
	}
	return n, nil
}

// ServicePaths holds the filesystem layout every launcher shares.
type ServicePaths struct {
	ToolsDir   string
	PackageDir string
	LogDir     string
	DataDir    string
}

// ServiceIdentity identifies the service and the concrete instance being
// launched. InstanceUUID is generated when the environment does not carry
// one, so a descriptor can always be registered with discovery.
type ServiceIdentity struct {
	ServiceUUID  string
	InstanceUUID string
}

// ResolvePaths reads the shared path layout. ToolsDir and PackageDir are
// required; LogDir and DataDir default to subdirectories of PackageDir.
func ResolvePaths(source Source) (ServicePaths, error) {
	toolsDir, err := Get(source, KeyServiceToolsDir)
	if err != nil {
		return ServicePaths{}, err
	}
	packageDir, err := Get(source, KeyServicePackageDir)
	if err != nil {
		return ServicePaths{}, err
	}
	return ServicePaths{
		ToolsDir:   toolsDir,
		PackageDir: packageDir,
		LogDir:     GetDefault(source, KeyServiceLogDir, packageDir+"/logs"),
		DataDir:    GetDefault(source, KeyServiceDataDir, packageDir+"/data"),
	}, nil
}

// ResolveIdentity reads the service identity. ServiceUUID is required;
// InstanceUUID falls back to a freshly generated UUID.
func ResolveIdentity(source Source) (ServiceIdentity, error) {
	serviceUUID, err := Get(source, KeyServiceUUID)
	if err != nil {
		return ServiceIdentity{}, err
	}
	instanceUUID := GetDefault(source, KeyServiceInstanceUUID, "")
	if instanceUUID == "" {
		instanceUUID = uuid.NewString()
	}
	return ServiceIdentity{
		ServiceUUID:  serviceUUID,
		InstanceUUID: instanceUUID,
	}, nil
}
