package munin

import "io"

// Plugin is implemented by every munin plugin.
type Plugin interface {
	// Config writes the munin graph configuration, see
	// http://guide.munin-monitoring.org/en/latest/develop/plugins/index.html
	Config(w io.Writer) error

	// Acquire gathers values and writes them to w. Standard plugins are
	// called with epoch 0 and write "field.value VALUE"; streaming plugins
	// are called once per Interval with the current unix time and write
	// "field.value EPOCH:VALUE".
	Acquire(w io.Writer, cfg *Config, epoch uint64) error
}

// Fetcher replaces the default fetch behaviour. Implementations of a
// streaming plugin must reset the cache on every fetch, or old values are
// handed to munin again; DrainCache does that safely.
type Fetcher interface {
	Fetch(w io.Writer, cfg *Config) error
}

// Autoconfigurer lets a plugin tell munin-node-configure whether it can run
// on this host. Plugins without it answer "no".
type Autoconfigurer interface {
	CheckAutoconf() bool
}
