// Package server implements the resolver's UDP query-serving loop.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dnscore/resolved/internal/cache"
	"github.com/dnscore/resolved/internal/metrics"
	"github.com/dnscore/resolved/internal/packet"
	"github.com/dnscore/resolved/internal/rerr"
	"github.com/dnscore/resolved/internal/resolver"
)

// Config holds DNS server configuration.
type Config struct {
	// Addr is the UDP address the server listens on.
	Addr string

	ResolverConfig resolver.Config
}

// DefaultConfig returns the server's zero-config defaults.
func DefaultConfig() Config {
	return Config{
		Addr: "127.0.0.1:3500",
		ResolverConfig: resolver.Config{
			CacheConfig: cache.Config{Capacity: 10000},
			Workers:     256,
		},
	}
}

// Server is the resolver's query-serving loop: one UDP socket dispatching
// onto a bounded worker pool, per spec.
type Server struct {
	cfg      Config
	resolver *resolver.Resolver
	conn     *net.UDPConn
}

// New builds a Server per cfg without binding its socket; call Start to
// begin serving.
func New(cfg Config) (*Server, error) {
	return &Server{
		cfg:      cfg,
		resolver: resolver.New(cfg.ResolverConfig),
	}, nil
}

// Start binds the UDP socket and begins serving queries until ctx is
// canceled.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("resolve listen address %s: %w", s.cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.conn = conn

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Printf("listening on %s\n", conn.LocalAddr())
	go s.serve(ctx)
	return nil
}

// Stop releases the server's socket and worker pool.
func (s *Server) Stop() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return s.resolver.Close()
}

// maxDatagramSize bounds the UDP receive buffer: DNS over UDP without
// EDNS0 is limited to 512 bytes in practice, decoded up to 1024.
const maxDatagramSize = 1024

func (s *Server) serve(ctx context.Context) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		wire := make([]byte, n)
		copy(wire, buf[:n])

		err = s.resolver.Submit(func(jobCtx context.Context) {
			s.handleQuery(jobCtx, wire, from)
		})
		if err != nil {
			// Worker pool saturated or shutting down; the client will
			// retry or time out.
			continue
		}
	}
}

func (s *Server) handleQuery(ctx context.Context, wire []byte, from *net.UDPAddr) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	query, err := packet.Decode(wire)
	if err != nil || len(query.Question) == 0 {
		metrics.ErrorsTotal.WithLabelValues("malformed_query").Inc()
		return
	}
	q := query.Question[0]
	metrics.QueriesTotal.WithLabelValues(q.Type.String()).Inc()

	resp := packet.Message{
		Header:   query.Header,
		Question: query.Question,
	}
	resp.Header.SetQR(true)
	resp.Header.SetRA(true)

	values, ttl, err := s.resolver.Resolve(ctx, q.Name, q.Type)
	if err != nil {
		if rcode, ok := rerr.Rcode(err); ok {
			resp.Header.SetRcode(uint8(rcode))
		} else {
			resp.Header.SetRcode(2) // ServFail
		}
		metrics.ErrorsTotal.WithLabelValues("resolve_failure").Inc()
		s.reply(resp, from)
		return
	}

	answers, err := buildAnswers(q.Name, q.Type, values, ttl)
	if err != nil {
		resp.Header.SetRcode(2)
		metrics.ErrorsTotal.WithLabelValues("answer_synthesis").Inc()
		s.reply(resp, from)
		return
	}
	resp.Answer = answers
	metrics.AnswersTotal.WithLabelValues("resolve").Inc()

	s.reply(resp, from)
}

func (s *Server) reply(resp packet.Message, from *net.UDPAddr) {
	wire, err := resp.Encode()
	if err != nil {
		return
	}
	s.conn.WriteToUDP(wire, from)
}

// buildAnswers turns a resolved value set into wire-ready resource
// records, reconstructing each record's RDATA from its type-specific
// textual form (the same form a cache hit or a fresh iterative
// resolution both produce).
func buildAnswers(name packet.DomainName, rrType packet.RRType, values []string, ttl time.Duration) ([]packet.ResourceRecord, error) {
	secs := uint32(ttl / time.Second)
	rrs := make([]packet.ResourceRecord, 0, len(values))
	for _, v := range values {
		rdata, err := encodeRData(rrType, v)
		if err != nil {
			return nil, err
		}
		rrs = append(rrs, packet.ResourceRecord{
			Name:  name,
			Type:  rrType,
			Class: packet.ClassIN,
			TTL:   secs,
			RData: rdata,
			Text:  v,
		})
	}
	return rrs, nil
}

func encodeRData(rrType packet.RRType, value string) ([]byte, error) {
	switch rrType {
	case packet.TypeA:
		ip := net.ParseIP(value).To4()
		if ip == nil {
			return nil, fmt.Errorf("%q is not a valid IPv4 address", value)
		}
		return []byte(ip), nil

	case packet.TypeAAAA:
		ip := net.ParseIP(value).To16()
		if ip == nil {
			return nil, fmt.Errorf("%q is not a valid IPv6 address", value)
		}
		return []byte(ip), nil

	case packet.TypeTXT:
		text := value
		if len(text) > 255 {
			text = text[:255]
		}
		return append([]byte{byte(len(text))}, text...), nil

	case packet.TypeNS, packet.TypeCNAME:
		return packet.EncodeName(nil, packet.DomainName(value), nil)

	default:
		return nil, fmt.Errorf("no RDATA synthesis defined for %v", rrType)
	}
}

// Stats reports server-wide counters.
type Stats struct {
	Resolver resolver.Stats
}

// GetStats returns a snapshot of the server's counters.
func (s *Server) GetStats() Stats {
	return Stats{Resolver: s.resolver.GetStats()}
}
