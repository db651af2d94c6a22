package launcher

import (
	"strconv"
	"strings"
)

// LaunchConfiguration accumulates the option set passed to the target binary.
// Assembly order matters: later entries override earlier ones, so GC options
// are appended last and a repeated -Dkey=value replaces the earlier one
// in place of accumulating both.
type LaunchConfiguration struct {
	options []string
}

func NewLaunchConfiguration() *LaunchConfiguration {
	return &LaunchConfiguration{}
}

// Append adds options verbatim, skipping empty entries.
func (c *LaunchConfiguration) Append(options ...string) {
	for _, option := range options {
		if option == "" {
			continue
		}
		c.options = append(c.options, option)
	}
}

// AppendRaw splits a whitespace-separated options string (as produced by the
// Java-options provider or an operator override variable) and appends it.
func (c *LaunchConfiguration) AppendRaw(raw string) {
	c.Append(strings.Fields(raw)...)
}

// SetProperty appends -Dkey=value, dropping any earlier option for the same
// key so the last assembled value wins.
func (c *LaunchConfiguration) SetProperty(key string, value string) {
	prefix := "-D" + key + "="
	kept := c.options[:0]
	for _, option := range c.options {
		if !strings.HasPrefix(option, prefix) {
			kept = append(kept, option)
		}
	}
	c.options = append(kept, prefix+value)
}

// SetPortProperty injects a resolved port as a system property.
func (c *LaunchConfiguration) SetPortProperty(key string, port int) {
	c.SetProperty(key, strconv.Itoa(port))
}

// Options returns the assembled options in order.
func (c *LaunchConfiguration) Options() []string {
	return c.options
}

// String returns the single options string handed to the start helper.
func (c *LaunchConfiguration) String() string {
	return strings.Join(c.options, " ")
}
