package manager

import (
	"errors"
	"testing"

	. "proxy-switch/testutil"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:7897", "http://127.0.0.1:7897"},
		{"proxy.lan:3128", "http://proxy.lan:3128"},
		{"[::1]:1080", "http://[::1]:1080"},
		{" localhost:8080 ", "http://localhost:8080"},
	}
	for _, tt := range tests {
		ep, err := ParseEndpoint(SchemeHTTP, tt.in)
		ExpectNoError(t, err)
		ExpectEqual(t, ep.URL(), tt.want)
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, in := range []string{"", "nohost", ":80", "host:0", "host:70000", "host:http", "a b:80"} {
		_, err := ParseEndpoint(SchemeHTTP, in)
		if !errors.Is(err, ErrInvalidEndpoint) {
			t.Errorf("ParseEndpoint(%q) err = %v, want ErrInvalidEndpoint", in, err)
		}
	}
}

func TestResolvePlanDisable(t *testing.T) {
	plan, err := ResolvePlan(nil, "", "", nil)
	ExpectNoError(t, err)
	ExpectEqual(t, plan.Mode, ModeDisable)
	ExpectTrue(t, plan.Config.Empty())
}

func TestResolvePlanMixed(t *testing.T) {
	plan, err := ResolvePlan([]string{"127.0.0.1:7897"}, "", "", nil)
	ExpectNoError(t, err)
	ExpectEqual(t, plan.Mode, ModeSet)
	ExpectEqual(t, plan.Config.HTTPURL(), "http://127.0.0.1:7897")
	ExpectEqual(t, plan.Config.SOCKSURL(), plan.Config.HTTPURL())
	ExpectDeepEqual(t, plan.Config.NoProxy, DefaultNoProxy)
}

func TestResolvePlanSeparate(t *testing.T) {
	plan, err := ResolvePlan(nil, "1.2.3.4:80", "5.6.7.8:1080", []string{"a", "b", "c"})
	ExpectNoError(t, err)
	ExpectEqual(t, plan.Config.HTTPURL(), "http://1.2.3.4:80")
	ExpectEqual(t, plan.Config.SOCKSURL(), "socks5://5.6.7.8:1080")
	ExpectEqual(t, plan.Config.NoProxyString(), "a,b,c")
}

func TestResolvePlanSOCKSOnly(t *testing.T) {
	plan, err := ResolvePlan(nil, "", "5.6.7.8:1080", nil)
	ExpectNoError(t, err)
	ExpectTrue(t, plan.Config.HTTP == nil)
	ExpectEqual(t, plan.Config.HTTPURL(), "")
	ExpectEqual(t, plan.Config.SOCKSURL(), "socks5://5.6.7.8:1080")
}

func TestResolvePlanUsageErrors(t *testing.T) {
	_, err := ResolvePlan([]string{"1.1.1.1:1", "2.2.2.2:2"}, "", "", nil)
	ExpectError(t, ErrUsage, err)

	_, err = ResolvePlan([]string{"1.1.1.1:1"}, "2.2.2.2:2", "", nil)
	ExpectError(t, ErrUsage, err)

	_, err = ResolvePlan(nil, "bogus", "", nil)
	ExpectError(t, ErrInvalidEndpoint, err)
}
