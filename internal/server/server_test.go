package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dnscore/resolved/internal/cache"
	"github.com/dnscore/resolved/internal/packet"
	"github.com/dnscore/resolved/internal/resolver"
)

// newTestNameserver starts a loopback UDP nameserver that answers every
// A query with a fixed address, for exercising the server's end-to-end
// query path without reaching the real network.
func newTestNameserver(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 65535)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			query, err := packet.Decode(buf[:n])
			if err != nil || len(query.Question) == 0 {
				continue
			}
			q := query.Question[0]
			resp := packet.Message{
				Header:   query.Header,
				Question: query.Question,
				Answer: []packet.ResourceRecord{
					{Name: q.Name, Type: packet.TypeA, Class: packet.ClassIN, TTL: 60, RData: []byte{10, 0, 0, 1}},
				},
			}
			resp.Header.SetQR(true)
			resp.Header.SetRA(true)
			wire, err := resp.Encode()
			if err != nil {
				continue
			}
			conn.WriteToUDP(wire, from)
		}
	}()

	return conn.LocalAddr().String()
}

func TestServer_AnswersQuery(t *testing.T) {
	nsAddr := newTestNameserver(t)
	_, nsPort, _ := net.SplitHostPort(nsAddr)

	s, err := New(Config{
		Addr: "127.0.0.1:0",
		ResolverConfig: resolver.Config{
			CacheConfig:    cache.Config{Capacity: 10},
			Bootstrap:      nsAddr,
			NameserverPort: nsPort,
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	client, err := net.Dial("udp", s.conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	query := packet.NewQuery(1234, "www.example.com.", packet.TypeA)
	wire, err := query.Encode()
	require.NoError(t, err)

	_, err = client.Write(wire)
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65535)
	n, err := client.Read(buf)
	require.NoError(t, err)

	resp, err := packet.Decode(buf[:n])
	require.NoError(t, err)
	require.True(t, resp.Header.QR())
	require.Len(t, resp.Answer, 1)
	require.Equal(t, "10.0.0.1", resp.Answer[0].Text)
}

func TestServer_MalformedQueryIsDropped(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.cfg.Addr = "127.0.0.1:0"
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	client, err := net.Dial("udp", s.conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte{0x01, 0x02})
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 65535)
	_, err = client.Read(buf)
	require.Error(t, err, "a malformed query should be dropped, not answered")
}
