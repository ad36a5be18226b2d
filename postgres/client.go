package postgres

import (
	"os"
	"regexp"
	"syscall"

	"golang.org/x/mod/semver"

	"github.com/kbukum/execkit/process"
)

// Connection supplies the parameters a client uses to reach the server.
type Connection interface {
	// ConnectionString returns a libpq connection string tagged with appName.
	ConnectionString(appName string) string
	// Parameters returns the discrete connection parameters (host, port, user).
	Parameters() map[string]string
}

// capabilities are the version-gated behaviours of the client programs.
type capabilities struct {
	// connString renders the connection as a single --dbname flag.
	connString bool
	// walMethod allows disabling the temporary slot and WAL streaming.
	walMethod bool
	// unifiedCompression uses --compress=[location-]algorithm[:options].
	unifiedCompression bool
}

// capabilityRules are applied in order; each applies to every version at or
// above its threshold.
var capabilityRules = []struct {
	since string
	apply func(*capabilities)
}{
	{"v9.3.0", func(c *capabilities) { c.connString = true }},
	{"v10.0.0", func(c *capabilities) { c.walMethod = true }},
	{"v15.0.0", func(c *capabilities) { c.unifiedCompression = true }},
}

var versionPrefix = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]+))?`)

// canonicalVersion turns a client version such as "9.6", "10" or "13devel"
// into a semantic version, or returns "" when it has no numeric prefix.
func canonicalVersion(version string) string {
	m := versionPrefix.FindStringSubmatch(version)
	if m == nil {
		return ""
	}
	minor := m[2]
	if minor == "" {
		minor = "0"
	}
	v := "v" + m[1] + "." + minor + ".0"
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

func capabilitiesFor(version string) capabilities {
	var c capabilities
	v := canonicalVersion(version)
	if v == "" {
		return c
	}
	for _, rule := range capabilityRules {
		if semver.Compare(v, rule.since) >= 0 {
			rule.apply(&c)
		}
	}
	return c
}

// connectionArgs renders conn for a client of the given capabilities.
func connectionArgs(conn Connection, caps capabilities, appName string) []string {
	if conn == nil {
		return nil
	}
	if caps.connString {
		return []string{"--dbname=" + conn.ConnectionString(appName)}
	}
	params := conn.Parameters()
	var args []string
	for _, p := range []struct{ key, flag string }{
		{"host", "--host="},
		{"port", "--port="},
		{"user", "--username="},
	} {
		if v, ok := params[p.key]; ok {
			args = append(args, p.flag+v)
		}
	}
	return args
}

// newClient builds a checked command for a PostgreSQL client program.
// Interrupts received by the host are relayed to the running client.
func newClient(name, component string, args []string, opts []process.Option) (*process.Command, error) {
	if name == "" {
		name = component
	}
	all := []process.Option{
		process.WithComponent(component),
		process.WithCheck(true),
		process.WithSignalForwarding(os.Interrupt, syscall.SIGTERM),
		process.WithArgs(args...),
	}
	return process.New(name, append(all, opts...)...)
}
