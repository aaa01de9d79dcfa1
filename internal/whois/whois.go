// Package whois summarizes domain registration data for the target host.
package whois

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// DefaultTimeout bounds a single registry query.
const DefaultTimeout = 10 * time.Second

// Summary is the condensed registration record attached to scan reports.
type Summary struct {
	Domain            string   `json:"domain"`
	Registrar         string   `json:"registrar,omitempty"`
	CreatedDate       string   `json:"created_date,omitempty"`
	UpdatedDate       string   `json:"updated_date,omitempty"`
	ExpirationDate    string   `json:"expiration_date,omitempty"`
	NameServers       []string `json:"name_servers,omitempty"`
	Status            []string `json:"status,omitempty"`
	DNSSEC            bool     `json:"dnssec,omitempty"`
	RegistrantOrg     string   `json:"registrant_org,omitempty"`
	RegistrantCountry string   `json:"registrant_country,omitempty"`
}

// Client performs registry lookups with a bounded timeout.
type Client struct {
	timeout time.Duration
	query   func(domain string) (string, error)
}

// NewClient creates a lookup client. A non-positive timeout selects
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	wc := whois.NewClient()
	wc.SetTimeout(timeout)
	return &Client{
		timeout: timeout,
		query:   func(domain string) (string, error) { return wc.Whois(domain) },
	}
}

// Lookup fetches and parses registration data for host. Ports and a
// leading www label are stripped first. IP literals are rejected; the
// registries expose per-domain records only.
func (c *Client) Lookup(ctx context.Context, host string) (*Summary, error) {
	domain := hostOnly(host)
	if domain == "" {
		return nil, fmt.Errorf("whois: empty host")
	}
	if net.ParseIP(domain) != nil {
		return nil, fmt.Errorf("whois: %s is an IP literal, no domain record", domain)
	}
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")

	type outcome struct {
		summary *Summary
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		s, err := c.lookup(domain)
		ch <- outcome{s, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		return out.summary, out.err
	}
}

func (c *Client) lookup(domain string) (*Summary, error) {
	raw, err := c.query(domain)
	if err != nil {
		return nil, fmt.Errorf("whois query for %s: %w", domain, err)
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse whois record for %s: %w", domain, err)
	}

	return summarize(domain, parsed), nil
}

func summarize(domain string, parsed whoisparser.WhoisInfo) *Summary {
	s := &Summary{Domain: domain}

	if d := parsed.Domain; d != nil {
		s.CreatedDate = d.CreatedDate
		s.UpdatedDate = d.UpdatedDate
		s.ExpirationDate = d.ExpirationDate
		s.NameServers = append([]string(nil), d.NameServers...)
		s.Status = append([]string(nil), d.Status...)
		s.DNSSEC = d.DNSSec
	}
	if r := parsed.Registrar; r != nil {
		s.Registrar = r.Name
	}
	if r := parsed.Registrant; r != nil {
		s.RegistrantOrg = r.Organization
		s.RegistrantCountry = r.Country
	}

	return s
}

// hostOnly strips a port from host:port and brackets from IPv6 literals.
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}
