/*
Package config resolves kiln's two configuration surfaces.

The catalog is the declarative fleet document: a JSON (or YAML) object with
one entry per target ctid. Resolver extracts a single entry into a validated
types.TargetConfig, failing fast with a diagnostic that names the offending
field. Validation happens here, at the boundary, never at
runtime-invocation time: a malformed CIDR is rejected before any container
is touched. Feature inheritance follows the clone-parent chain and produces
a sorted union.

Settings are tool-level knobs (retry budgets, bridge name, runtime binary)
loaded through viper from an optional file plus KILN_* environment
variables.
*/
package config
