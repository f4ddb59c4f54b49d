// Package resolver implements iterative DNS resolution: referral-following
// from a single bootstrap root server, CNAME chasing, and a shared answer
// cache in front of it all.
package resolver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/dnscore/resolved/internal/cache"
	"github.com/dnscore/resolved/internal/packet"
	"github.com/dnscore/resolved/internal/rerr"
	"github.com/dnscore/resolved/internal/worker"
)

// rootServer is the single bootstrap nameserver iterative resolution
// starts from (a.root-servers.net). A production resolver would hold the
// full root hints file and fail over across it; this one leans on a
// single well-known address and instead bounds the damage a bad or
// malicious referral chain can do via maxSubResolutions and the
// per-call deadline.
const rootServer = "198.41.0.4:53"

const (
	// queryID is used for every outbound resolver exchange. Each exchange
	// opens its own dialed socket, so ids are never used to match a
	// response to its query; a fixed id is as good as a random one here
	// and keeps exchanges reproducible.
	queryID uint16 = 45232

	defaultExchangeTimeout = 5 * time.Second
	defaultCallTimeout     = 30 * time.Second

	// maxSubResolutions bounds both the number of referrals followed
	// within one resolveIterative call and the depth of CNAME chases and
	// glueless-NS sub-resolutions, so a malicious or cyclic referral
	// chain terminates instead of recursing forever.
	maxSubResolutions = 32

	nameserverPort = "53"

	// maxDatagramSize bounds the UDP receive buffer: DNS over UDP without
	// EDNS0 is limited to 512 bytes in practice, decoded up to 1024.
	maxDatagramSize = 1024
)

var (
	ErrNoNameservers = errors.New("referral had no usable nameserver")
	ErrMaxDepth      = errors.New("max sub-resolution depth reached")
)

// Config configures a Resolver.
type Config struct {
	CacheConfig     cache.Config
	Workers         int
	ExchangeTimeout time.Duration
	CallTimeout     time.Duration

	// Bootstrap overrides the nameserver iterative resolution starts
	// from. Tests use this to point at a scripted loopback nameserver;
	// production leaves it unset and gets rootServer.
	Bootstrap string

	// NameserverPort overrides the port used when turning a referral's
	// glue or resolved NS address into a dial target. Tests use this to
	// talk to scripted nameservers on unprivileged ports; production
	// leaves it unset and gets 53.
	NameserverPort string
}

// Resolver performs iterative DNS resolution with a shared cache in front.
type Resolver struct {
	cache      *cache.Cache
	workerPool *worker.Pool
	bootstrap  string
	nsPort     string
	cfg        Config
}

// New builds a Resolver per cfg, applying defaults for zero fields.
func New(cfg Config) *Resolver {
	if cfg.ExchangeTimeout == 0 {
		cfg.ExchangeTimeout = defaultExchangeTimeout
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.Workers == 0 {
		cfg.Workers = 100
	}
	bootstrap := cfg.Bootstrap
	if bootstrap == "" {
		bootstrap = rootServer
	}
	nsPort := cfg.NameserverPort
	if nsPort == "" {
		nsPort = nameserverPort
	}

	return &Resolver{
		cache: cache.New(cfg.CacheConfig),
		workerPool: worker.NewPool(worker.Config{
			Workers:   cfg.Workers,
			QueueSize: cfg.Workers * 10,
		}),
		bootstrap: bootstrap,
		nsPort:    nsPort,
		cfg:       cfg,
	}
}

// Resolve returns the type-appropriate answer values for (name, rrType)
// and how long they remain valid, consulting the cache before falling
// back to iterative resolution.
func (r *Resolver) Resolve(ctx context.Context, name packet.DomainName, rrType packet.RRType) ([]string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.resolve(ctx, name, rrType, 0)
}

func (r *Resolver) resolve(ctx context.Context, name packet.DomainName, rrType packet.RRType, depth int) ([]string, time.Duration, error) {
	if depth > maxSubResolutions {
		return nil, 0, ErrMaxDepth
	}

	key := cache.Key{Name: name, Type: rrType}
	if entry, ok := r.cache.Get(key); ok {
		return entry.Values, time.Until(entry.ExpiresAt), nil
	}

	values, ttl, err := r.resolveIterative(ctx, name, rrType, depth)
	if err != nil {
		return nil, 0, err
	}

	r.cache.Insert(key, cache.Entry{Values: values, ExpiresAt: time.Now().Add(ttl)})
	return values, ttl, nil
}

// resolveIterative walks referrals from the root down to an authoritative
// answer, or chases a CNAME, for (name, rrType).
func (r *Resolver) resolveIterative(ctx context.Context, name packet.DomainName, rrType packet.RRType, depth int) ([]string, time.Duration, error) {
	ns := r.bootstrap

	for iter := 0; iter < maxSubResolutions; iter++ {
		msg, err := r.exchange(ctx, ns, name, rrType)
		if err != nil {
			return nil, 0, err
		}

		if values, ttl, ok := directAnswer(msg, name, rrType); ok {
			return values, ttl, nil
		}

		if rrType == packet.TypeA {
			if target, ttl, ok := cnameAnswer(msg, name); ok {
				values, _, err := r.resolve(ctx, target, rrType, depth+1)
				if err != nil {
					return nil, 0, err
				}
				return values, ttl, nil
			}
		}

		if msg.Header.Rcode() != 0 {
			return nil, 0, rerr.LookupFailureRcode(rrType.String(), name.String(), int(msg.Header.Rcode()))
		}

		next, err := r.nextNameserver(ctx, msg, depth)
		if err != nil {
			return nil, 0, err
		}
		ns = next
	}

	return nil, 0, ErrMaxDepth
}

// directAnswer scans msg's answer section for records matching name and
// rrType, returning their values and the minimum TTL among them.
func directAnswer(msg packet.Message, name packet.DomainName, rrType packet.RRType) ([]string, time.Duration, bool) {
	var values []string
	var minTTL uint32
	for _, rr := range msg.Answer {
		if rr.Type != rrType || !rr.Name.Equal(name) {
			continue
		}
		values = append(values, rr.Text)
		if len(values) == 1 || rr.TTL < minTTL {
			minTTL = rr.TTL
		}
	}
	if len(values) == 0 {
		return nil, 0, false
	}
	return values, time.Duration(minTTL) * time.Second, true
}

// cnameAnswer scans msg's answer section for a CNAME owned by name.
func cnameAnswer(msg packet.Message, name packet.DomainName) (packet.DomainName, time.Duration, bool) {
	for _, rr := range msg.Answer {
		if rr.Type == packet.TypeCNAME && rr.Name.Equal(name) {
			return packet.DomainName(rr.Text), time.Duration(rr.TTL) * time.Second, true
		}
	}
	return "", 0, false
}

// nextNameserver picks the next nameserver to query from msg's referral:
// an NS record in Authority, resolved to an address either via glue in
// Additional or, failing that, by sub-resolving the NS name's own A
// record.
func (r *Resolver) nextNameserver(ctx context.Context, msg packet.Message, depth int) (string, error) {
	for _, ns := range msg.Authority {
		if ns.Type != packet.TypeNS {
			continue
		}
		nsName := packet.DomainName(ns.Text)

		for _, glue := range msg.Additional {
			if glue.Type == packet.TypeA && glue.Name.Equal(nsName) {
				return net.JoinHostPort(glue.Text, r.nsPort), nil
			}
		}

		values, _, err := r.resolve(ctx, nsName, packet.TypeA, depth+1)
		if err == nil && len(values) > 0 {
			return net.JoinHostPort(values[0], r.nsPort), nil
		}
	}
	return "", ErrNoNameservers
}

// exchange sends a single query for (name, rrType) to ns and returns its
// parsed response.
func (r *Resolver) exchange(ctx context.Context, ns string, name packet.DomainName, rrType packet.RRType) (packet.Message, error) {
	exCtx, cancel := context.WithTimeout(ctx, r.cfg.ExchangeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(exCtx, "udp", ns)
	if err != nil {
		return packet.Message{}, rerr.ConnectionFailure(ns, err)
	}
	defer conn.Close()

	if deadline, ok := exCtx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	query := packet.NewQuery(queryID, name, rrType)
	wire, err := query.Encode()
	if err != nil {
		return packet.Message{}, err
	}
	if _, err := conn.Write(wire); err != nil {
		return packet.Message{}, rerr.IOFailure("write query to "+ns, err)
	}

	buf := make([]byte, maxDatagramSize)
	n, err := conn.Read(buf)
	if err != nil {
		return packet.Message{}, rerr.IOFailure("read response from "+ns, err)
	}

	return packet.Decode(buf[:n])
}

// Submit runs fn on the resolver's worker pool, for callers (the server's
// query-serving loop) that want resolution work bounded by a fixed number
// of goroutines rather than one per inbound query.
func (r *Resolver) Submit(fn func(ctx context.Context)) error {
	return r.workerPool.Submit(worker.JobFunc(fn))
}

// Close releases the resolver's worker pool.
func (r *Resolver) Close() error {
	return r.workerPool.Close()
}

// Stats reports resolver-wide counters.
type Stats struct {
	Cache cache.Stats
	Pool  worker.Stats
}

// GetStats returns a snapshot of the resolver's counters.
func (r *Resolver) GetStats() Stats {
	return Stats{
		Cache: r.cache.Stats(),
		Pool:  r.workerPool.GetStats(),
	}
}
