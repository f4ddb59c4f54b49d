// Command client looks up a domain name against the resolver, performing
// its own iterative resolution starting from the bootstrap root.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dnscore/resolved/internal/cache"
	"github.com/dnscore/resolved/internal/packet"
	"github.com/dnscore/resolved/internal/resolver"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: client <domain> <record-type>")
		os.Exit(1)
	}

	domain := os.Args[1]
	rrType, err := packet.ParseRRType(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	r := resolver.New(resolver.Config{CacheConfig: cache.Config{Capacity: 16}})
	defer r.Close()

	values, _, err := r.Resolve(context.Background(), packet.DomainName(domain), rrType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	fmt.Printf("answer(s): %v\n", values)
}
