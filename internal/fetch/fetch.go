// Package fetch downloads remote resources under a security policy.
//
// A Fetcher refuses non-HTTP schemes, hosts that resolve to loopback,
// private, link-local or reserved addresses, redirect hops that fail the
// same checks, bodies larger than the policy ceiling and responses whose
// Content-Type is not allow-listed. Address checks run before any
// connection is opened and again when the transport dials, so the
// connection always goes to an address that passed the guard.
//
// Each Fetcher owns its HTTP client. Build workers create their own.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors. ErrOversized is a policy rejection; ErrTimeout is a
// network failure.
var (
	ErrPolicyRejected = errors.New("rejected by fetch policy")
	ErrNetwork        = errors.New("network failure")
	ErrOversized      = fmt.Errorf("%w: response exceeds size limit", ErrPolicyRejected)
	ErrTimeout        = fmt.Errorf("%w: request timed out", ErrNetwork)
)

// URL fragments that are never part of a legitimate image or font URL.
var suspiciousPatterns = []string{
	"%2f%2f",
	"%5c%5c",
	"../",
	"%2e%2e%2f",
	"%2e%2e/",
	"file://",
	"ftp://",
	"gopher://",
	"data://",
	"javascript:",
}

// Resolver resolves host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Result is a successful download.
type Result struct {
	URL         string // final URL after redirects
	ContentType string // media type without parameters
	Body        []byte
}

// Fetcher downloads resources according to a Policy.
type Fetcher struct {
	policy    Policy
	guard     Guard
	resolver  Resolver
	dialer    Dialer
	transport *http.Transport
	client    *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithResolver replaces the DNS resolver.
func WithResolver(r Resolver) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.resolver = r
		}
	}
}

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) Option {
	return func(f *Fetcher) {
		if d != nil {
			f.dialer = d
		}
	}
}

// WithGuard replaces the address guard.
func WithGuard(g Guard) Option {
	return func(f *Fetcher) {
		f.guard = g
	}
}

// New creates a Fetcher with its own HTTP client. Unset policy fields take
// their defaults.
func New(policy Policy, opts ...Option) *Fetcher {
	f := &Fetcher{
		policy:   policy.withDefaults(),
		guard:    DefaultGuard(),
		resolver: net.DefaultResolver,
		dialer:   &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}

	// No proxy: a proxy would connect on our behalf and bypass the guard.
	f.transport = &http.Transport{
		Proxy:                 nil,
		DialContext:           f.dialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: f.policy.Timeout,
	}
	f.client = &http.Client{
		Transport:     f.transport,
		Timeout:       f.policy.Timeout,
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// Policy returns the effective policy.
func (f *Fetcher) Policy() Policy { return f.policy }

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

// Fetch downloads rawURL. Every failure wraps ErrPolicyRejected or ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := f.checkURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrPolicyRejected, err)
	}
	req.Header.Set("User-Agent", f.policy.UserAgent)
	req.Header.Set("Accept", strings.Join(f.policy.AllowedMIMETypes, ", "))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrNetwork, redact(resp.Request.URL), resp.StatusCode)
	}

	mt := mediaType(resp.Header.Get("Content-Type"))
	if !f.policy.allowsMIME(mt) {
		if mt == "" {
			return nil, fmt.Errorf("%w: %s: missing content type", ErrPolicyRejected, redact(resp.Request.URL))
		}
		return nil, fmt.Errorf("%w: %s: content type %q not allowed", ErrPolicyRejected, redact(resp.Request.URL), mt)
	}

	if resp.ContentLength > f.policy.MaxBytes {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrOversized, resp.ContentLength, f.policy.MaxBytes)
	}

	body, err := io.ReadAll(&cappedReader{r: resp.Body, max: f.policy.MaxBytes})
	if err != nil {
		if errors.Is(err, ErrOversized) {
			return nil, fmt.Errorf("%w: limit %d", ErrOversized, f.policy.MaxBytes)
		}
		return nil, classify(err)
	}
	if sniffed, ok := f.policy.agreesWithBody(mt, body); !ok {
		return nil, fmt.Errorf("%w: %s: declared %q but content looks like %q", ErrPolicyRejected, redact(resp.Request.URL), mt, sniffed)
	}

	return &Result{
		URL:         resp.Request.URL.String(),
		ContentType: mt,
		Body:        body,
	}, nil
}

// checkURL runs the static checks and the address check on rawURL.
func (f *Fetcher) checkURL(ctx context.Context, rawURL string) (*url.URL, error) {
	u, err := f.validate(rawURL)
	if err != nil {
		return nil, err
	}
	if _, err := f.resolveAllowed(ctx, u.Hostname()); err != nil {
		return nil, err
	}
	return u, nil
}

// validate applies every check that does not need the network.
func (f *Fetcher) validate(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrPolicyRejected)
	}
	if len(rawURL) > MaxURLLength {
		return nil, fmt.Errorf("%w: URL longer than %d bytes", ErrPolicyRejected, MaxURLLength)
	}
	lower := strings.ToLower(rawURL)
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			return nil, fmt.Errorf("%w: URL contains suspicious pattern %q", ErrPolicyRejected, p)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrPolicyRejected, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme %q", ErrPolicyRejected, u.Scheme)
	}
	if u.Opaque != "" || u.Host == "" {
		return nil, fmt.Errorf("%w: URL has no host", ErrPolicyRejected)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: URL carries user info", ErrPolicyRejected)
	}

	host := normalizeHost(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: URL has no host", ErrPolicyRejected)
	}
	if !f.guard.AllowHost(host) {
		return nil, fmt.Errorf("%w: blocked host %q", ErrPolicyRejected, host)
	}
	if !f.policy.allowsDomain(host) {
		return nil, fmt.Errorf("%w: host %q not in domain allow-list", ErrPolicyRejected, host)
	}
	if _, err := netip.ParseAddr(host); err != nil && numericHost(host) {
		return nil, fmt.Errorf("%w: ambiguous numeric host %q", ErrPolicyRejected, host)
	}
	return u, nil
}

// resolveAllowed resolves host and fails if any of its addresses is blocked.
func (f *Fetcher) resolveAllowed(ctx context.Context, host string) ([]netip.Addr, error) {
	host = normalizeHost(host)
	if addr, err := netip.ParseAddr(host); err == nil {
		if !f.guard.AllowAddr(addr) {
			return nil, fmt.Errorf("%w: blocked address %s", ErrPolicyRejected, addr)
		}
		return []netip.Addr{addr}, nil
	}

	addrs, err := f.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrNetwork, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: resolve %s: no addresses", ErrNetwork, host)
	}
	for _, a := range addrs {
		if !f.guard.AllowAddr(a) {
			return nil, fmt.Errorf("%w: host %s resolves to blocked address %s", ErrPolicyRejected, host, a)
		}
	}
	return addrs, nil
}

// dialContext re-resolves the host and connects to a validated address,
// so a DNS answer that changed since checkURL cannot redirect the socket.
func (f *Fetcher) dialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPolicyRejected, err)
	}
	addrs, err := f.resolveAllowed(ctx, host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, a := range addrs {
		conn, err := f.dialer.DialContext(ctx, network, net.JoinHostPort(a.String(), port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if f.policy.MaxRedirects < 0 || len(via) > f.policy.MaxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", ErrPolicyRejected, len(via))
	}
	if _, err := f.checkURL(req.Context(), req.URL.String()); err != nil {
		return err
	}
	return nil
}

// classify maps client errors onto the package sentinels.
func classify(err error) error {
	if errors.Is(err, ErrPolicyRejected) || errors.Is(err, ErrNetwork) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func normalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// numericHost reports whether the last label is numeric or hexadecimal,
// which some resolvers interpret as an integer IPv4 address.
func numericHost(host string) bool {
	label := host
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		label = host[i+1:]
	}
	if label == "" {
		return false
	}
	if strings.HasPrefix(label, "0x") {
		return true
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// redact drops query and fragment from u for error messages.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}

// cappedReader fails with ErrOversized as soon as more than max bytes arrive.
type cappedReader struct {
	r     io.Reader
	max   int64
	total int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.total += int64(n)
	if c.total > c.max {
		return 0, ErrOversized
	}
	return n, err
}
