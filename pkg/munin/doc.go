// Package munin provides the scaffolding for writing Munin plugins.
//
// There are two kinds of plugins:
//
//   - Standard plugins are run by munin-node every five minutes and gather
//     and print their values on the spot.
//   - Streaming plugins daemonize and sample once a second into a cache
//     file. When munin comes around they hand out everything gathered since
//     the previous fetch, which allows graphs with one second resolution.
//
// A plugin implements Plugin: Config prints the graph configuration and
// Acquire prints values, as "field.value VALUE" for standard plugins and
// "field.value EPOCH:VALUE" for streaming ones. The Runner handles the rest
// of the protocol: the config, autoconf and acquire arguments, dirtyconfig,
// starting the daemon, and draining the cache.
//
//	type LoadPlugin struct{}
//
//	func (LoadPlugin) Config(w io.Writer) error {
//	    _, err := io.WriteString(w, "graph_title Load average\nload.label load\n")
//	    return err
//	}
//
//	func (LoadPlugin) Acquire(w io.Writer, cfg *munin.Config, epoch uint64) error {
//	    _, err := fmt.Fprintf(w, "load.value %.2f\n", readLoad())
//	    return err
//	}
//
//	func main() {
//	    if err := munin.SimpleStart(LoadPlugin{}, "load"); err != nil {
//	        os.Exit(1)
//	    }
//	}
//
// Cross-process coordination uses lock files (package lockfile): the daemon
// holds Config.LockFile for its lifetime, and appends to and drains of the
// cache file happen under Config.CacheLockFile(). Logs go to stderr, which
// munin-node collects; stdout carries only protocol output.
package munin
