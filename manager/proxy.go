package manager

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Scheme string

const (
	SchemeHTTP   Scheme = "http"
	SchemeSOCKS5 Scheme = "socks5"
)

// DefaultNoProxy is used when neither the command line nor the config file
// supplies a no-proxy list.
var DefaultNoProxy = []string{
	"localhost",
	"127.0.0.1",
	"::1",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	".local",
}

var (
	ErrInvalidEndpoint = errors.New("invalid proxy endpoint")
	ErrUsage           = errors.New("usage error")
)

var validate = validator.New()

type ProxyEndpoint struct {
	Scheme Scheme `json:"scheme"`
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
}

// ParseEndpoint parses a host:port literal. IPv6 hosts must be bracketed.
func ParseEndpoint(scheme Scheme, literal string) (*ProxyEndpoint, error) {
	literal = strings.TrimSpace(literal)
	if err := validate.Var(literal, "hostname_port"); err != nil {
		if _, perr := netip.ParseAddrPort(literal); perr != nil {
			return nil, fmt.Errorf("%w %q: expected HOST:PORT", ErrInvalidEndpoint, literal)
		}
	}

	host, portStr, err := net.SplitHostPort(literal)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidEndpoint, literal, err)
	}
	if host == "" {
		return nil, fmt.Errorf("%w %q: empty host", ErrInvalidEndpoint, literal)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("%w %q: bad port %q", ErrInvalidEndpoint, literal, portStr)
	}

	return &ProxyEndpoint{Scheme: scheme, Host: host, Port: uint16(port)}, nil
}

func (e *ProxyEndpoint) URL() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s://%s", e.Scheme, net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port))))
}

// ProxyConfig is the resolved proxy setting handed to every target. Mixed
// mode stores the same endpoint in both roles.
type ProxyConfig struct {
	HTTP    *ProxyEndpoint `json:"http"`
	SOCKS   *ProxyEndpoint `json:"socks"`
	NoProxy []string       `json:"no_proxy"`
}

func (c ProxyConfig) HTTPURL() string  { return c.HTTP.URL() }
func (c ProxyConfig) SOCKSURL() string { return c.SOCKS.URL() }

func (c ProxyConfig) NoProxyString() string {
	return strings.Join(c.NoProxy, ",")
}

func (c ProxyConfig) Empty() bool {
	return c.HTTP == nil && c.SOCKS == nil
}

type Mode int

const (
	ModeDisable Mode = iota
	ModeSet
)

func (m Mode) String() string {
	if m == ModeSet {
		return "set"
	}
	return "disable"
}

type Plan struct {
	Mode   Mode
	Config ProxyConfig
}

// ResolvePlan turns the command line inputs into a plan. No endpoint means
// disable, a single positional endpoint is a mixed proxy, explicit http/socks
// addresses are used for their own role only.
func ResolvePlan(positional []string, httpAddr, socksAddr string, noProxy []string) (Plan, error) {
	explicit := httpAddr != "" || socksAddr != ""

	switch {
	case len(positional) > 1:
		return Plan{}, fmt.Errorf("%w: expected at most one HOST:PORT, got %d", ErrUsage, len(positional))
	case len(positional) == 1 && explicit:
		return Plan{}, fmt.Errorf("%w: HOST:PORT cannot be combined with -http or -socks", ErrUsage)
	case len(positional) == 0 && !explicit:
		return Plan{Mode: ModeDisable}, nil
	}

	cfg := ProxyConfig{NoProxy: noProxy}
	if cfg.NoProxy == nil {
		cfg.NoProxy = DefaultNoProxy
	}

	if len(positional) == 1 {
		ep, err := ParseEndpoint(SchemeHTTP, positional[0])
		if err != nil {
			return Plan{}, err
		}
		cfg.HTTP, cfg.SOCKS = ep, ep
		return Plan{Mode: ModeSet, Config: cfg}, nil
	}

	if httpAddr != "" {
		ep, err := ParseEndpoint(SchemeHTTP, httpAddr)
		if err != nil {
			return Plan{}, err
		}
		cfg.HTTP = ep
	}
	if socksAddr != "" {
		ep, err := ParseEndpoint(SchemeSOCKS5, socksAddr)
		if err != nil {
			return Plan{}, err
		}
		cfg.SOCKS = ep
	}
	return Plan{Mode: ModeSet, Config: cfg}, nil
}
