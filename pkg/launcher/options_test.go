package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLaunchConfiguration_AssemblyOrder(t *testing.T) {
	options := NewLaunchConfiguration()

	options.AppendRaw("-Xms512m -Xmx2g")
	options.Append("-Dcluster.mode=mirror")
	options.Append("-XX:+UseG1GC")

	assert.Equal(t, "-Xms512m -Xmx2g -Dcluster.mode=mirror -XX:+UseG1GC", options.String())
}

func TestLaunchConfiguration_AppendSkipsEmpty(t *testing.T) {
	options := NewLaunchConfiguration()

	options.Append("", "-Xmx2g", "")
	options.AppendRaw("")
	options.AppendRaw("   ")

	assert.Equal(t, []string{"-Xmx2g"}, options.Options())
}

func TestLaunchConfiguration_SetProperty_LaterWins(t *testing.T) {
	options := NewLaunchConfiguration()

	options.SetProperty("svc.rpc.port", "9100")
	options.Append("-Xmx2g")
	options.SetProperty("svc.rpc.port", "9200")

	assert.Equal(t, "-Xmx2g -Dsvc.rpc.port=9200", options.String())
}

func TestLaunchConfiguration_SetPortProperty(t *testing.T) {
	options := NewLaunchConfiguration()

	options.SetPortProperty("svc.raft.port", 7070)

	assert.Equal(t, []string{"-Dsvc.raft.port=7070"}, options.Options())
}

func TestLaunchConfiguration_PropertyPrefixIsExact(t *testing.T) {
	options := NewLaunchConfiguration()

	options.SetProperty("svc.port", "1000")
	options.SetProperty("svc.port.backup", "2000")

	// svc.port.backup must not displace svc.port
	assert.Equal(t, []string{"-Dsvc.port=1000", "-Dsvc.port.backup=2000"}, options.Options())
}
