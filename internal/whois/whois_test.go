package whois

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleRecord = `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar URL: http://res-dom.iana.org
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2026-08-13T04:00:00Z
Registrar: RESERVED-Internet Assigned Numbers Authority
Registrar IANA ID: 376
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
DNSSEC: signedDelegation
>>> Last update of whois database: 2025-01-02T00:00:00Z <<<
`

func stubClient(raw string, err error) *Client {
	c := NewClient(time.Second)
	c.query = func(domain string) (string, error) { return raw, err }
	return c
}

// =============================================================================
// Lookup Tests
// =============================================================================

func TestClient_Lookup(t *testing.T) {
	c := stubClient(sampleRecord, nil)

	s, err := c.Lookup(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if s.Domain != "example.com" {
		t.Errorf("Domain = %s, want example.com", s.Domain)
	}
	if s.Registrar != "RESERVED-Internet Assigned Numbers Authority" {
		t.Errorf("Registrar = %q", s.Registrar)
	}
	if s.CreatedDate != "1995-08-14T04:00:00Z" {
		t.Errorf("CreatedDate = %q", s.CreatedDate)
	}
	if s.ExpirationDate != "2026-08-13T04:00:00Z" {
		t.Errorf("ExpirationDate = %q", s.ExpirationDate)
	}
	if len(s.NameServers) != 2 {
		t.Errorf("NameServers = %v, want 2 entries", s.NameServers)
	}
	for _, ns := range s.NameServers {
		if !strings.Contains(strings.ToLower(ns), "iana-servers.net") {
			t.Errorf("unexpected name server %q", ns)
		}
	}
	if len(s.Status) == 0 {
		t.Error("Status is empty, want the domain status entries")
	}
}

func TestClient_Lookup_StripsPortAndWWW(t *testing.T) {
	var queried string
	c := stubClient(sampleRecord, nil)
	c.query = func(domain string) (string, error) {
		queried = domain
		return sampleRecord, nil
	}

	if _, err := c.Lookup(context.Background(), "www.Example.com:8443"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if queried != "example.com" {
		t.Errorf("queried domain = %q, want example.com", queried)
	}
}

func TestClient_Lookup_RejectsIPLiteral(t *testing.T) {
	tests := []string{"192.168.1.10", "192.168.1.10:8080", "[::1]:443"}

	c := stubClient(sampleRecord, nil)
	for _, host := range tests {
		t.Run(host, func(t *testing.T) {
			if _, err := c.Lookup(context.Background(), host); err == nil {
				t.Errorf("Lookup(%s) should reject IP literals", host)
			}
		})
	}
}

func TestClient_Lookup_QueryError(t *testing.T) {
	queryErr := errors.New("connection refused")
	c := stubClient("", queryErr)

	_, err := c.Lookup(context.Background(), "example.com")
	if err == nil {
		t.Fatal("Lookup() should propagate query failures")
	}
	if !errors.Is(err, queryErr) {
		t.Errorf("error = %v, want wrapped query error", err)
	}
}

func TestClient_Lookup_UnparseableRecord(t *testing.T) {
	c := stubClient("No match for domain \"NOSUCH.INVALID\".", nil)

	if _, err := c.Lookup(context.Background(), "nosuch.invalid"); err == nil {
		t.Error("Lookup() should fail on a not-found record")
	}
}

func TestClient_Lookup_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	c := NewClient(time.Second)
	c.query = func(domain string) (string, error) {
		<-block
		return sampleRecord, nil
	}
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Lookup(ctx, "example.com")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Lookup() error = %v, want context.Canceled", err)
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(0)
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestHostOnly(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"example.com:8080", "example.com"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"[2001:db8::1]", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := hostOnly(tt.host); got != tt.want {
				t.Errorf("hostOnly(%s) = %s, want %s", tt.host, got, tt.want)
			}
		})
	}
}
