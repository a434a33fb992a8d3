// Package collector lets a munin plugin delegate its config and values to a
// separate collector binary, talking to it over hashicorp/go-plugin gRPC.
//
// The collector side implements Collector and calls Serve from main. The
// plugin side calls Launch and hands the returned Host to munin.Start.
package collector

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

// Handshake must match between the plugin host and every collector.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MUNIN_COLLECTOR",
	MagicCookieValue: "munin_plugin_collector",
}

// PluginName is the name the collector is dispensed under.
const PluginName = "collector"

// Collector produces munin protocol output.
type Collector interface {
	// Config returns the graph configuration.
	Config() ([]byte, error)

	// Acquire returns the current values. epoch is the sample time in
	// seconds for streaming plugins and 0 otherwise.
	Acquire(epoch uint64) ([]byte, error)

	// Autoconf reports whether the collector can run on this host.
	Autoconf() (bool, error)
}

// CollectorPlugin is the implementation of plugin.GRPCPlugin for a
// Collector.
type CollectorPlugin struct {
	plugin.Plugin
	// Impl is only set on the collector side.
	Impl Collector
}

// GRPCServer registers the collector implementation with the gRPC server.
func (p *CollectorPlugin) GRPCServer(broker *plugin.GRPCBroker, s *grpc.Server) error {
	s.RegisterService(&collectorServiceDesc, &grpcServer{impl: p.Impl})
	return nil
}

// GRPCClient returns a Collector backed by the plugin connection.
func (p *CollectorPlugin) GRPCClient(ctx context.Context, broker *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return &grpcClient{conn: c}, nil
}

// PluginMap returns the plugin set for a collector implementation.
func PluginMap(impl Collector) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &CollectorPlugin{Impl: impl},
	}
}

// Serve runs impl as a collector process. It does not return.
func Serve(impl Collector) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
