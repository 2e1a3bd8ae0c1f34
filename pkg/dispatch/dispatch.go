package dispatch

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/metrics"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/rpc"
	"github.com/materials-commons/mcbun/pkg/structfile"
)

// LocalFunc runs an operation in this process.
type LocalFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// RemoteFunc forwards an operation to a peer. Method expressions such as
// (*rpc.Client).SubFileOpen have this shape.
type RemoteFunc[Req, Resp any] func(c *rpc.Client, ctx context.Context, req Req) (Resp, error)

// Dispatcher resolves host addresses and keeps one client per peer.
type Dispatcher struct {
	resolver   Resolver
	clientOpts []rpc.Option

	mu      sync.Mutex
	clients map[string]*rpc.Client
}

func New(resolver Resolver, clientOpts ...rpc.Option) *Dispatcher {
	return &Dispatcher{
		resolver:   resolver,
		clientOpts: clientOpts,
		clients:    make(map[string]*rpc.Client),
	}
}

func (d *Dispatcher) Resolve(addr structfile.HostAddr) (Class, *ServerHost, error) {
	return d.resolver.Resolve(addr)
}

// Client returns the cached client for a peer, creating it on first use.
func (d *Dispatcher) Client(host *ServerHost) *rpc.Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.clients[host.Name]
	if !ok {
		c = rpc.NewClient(host.URL, d.clientOpts...)
		d.clients[host.Name] = c
	}

	return c
}

// Call resolves addr and runs local in process or remote against the owning
// peer. Peer statuses are returned unchanged.
func Call[Req, Resp any](ctx context.Context, d *Dispatcher, op string, addr structfile.HostAddr, req Req,
	local LocalFunc[Req, Resp], remote RemoteFunc[Req, Resp]) (Resp, error) {
	var zero Resp

	class, host, err := d.resolver.Resolve(addr)
	if err != nil {
		log.Warnf("%s: resolving host '%s' failed: %s", op, addr.HostName, err)
		return zero, err
	}

	metrics.DispatchTotal.WithLabelValues(op, class.String()).Inc()

	switch class {
	case LocalHost:
		return local(ctx, req)
	case RemoteHost:
		if host == nil {
			log.Errorf("%s: remote host for '%s' resolved without a server host", op, addr.HostName)
			return zero, rerr.New(rerr.SysInternalNullInputErr, "%s: no server host for %s", op, addr.HostName)
		}
		return remote(d.Client(host), ctx, req)
	default:
		log.Warnf("%s: resolver returned unrecognized class %s for '%s'", op, class, addr.HostName)
		return zero, rerr.New(rerr.SysUnrecognizedRemoteFlag, "%s: unrecognized dispatch class %d", op, int(class))
	}
}
