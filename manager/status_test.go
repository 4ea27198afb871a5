package manager

import (
	"context"
	"testing"

	. "proxy-switch/testutil"
)

func TestStatus(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	installed := InstalledSet{EnvTargetName: true, "git": true, "curl": true}

	plan := mustPlan(t, []string{"127.0.0.1:7897"}, "", "", nil)
	_, err := Run(ctx, env, Registry, InstalledSet{EnvTargetName: true, "git": true}, plan)
	ExpectNoError(t, err)

	for _, st := range Status(ctx, env, Registry, installed) {
		ExpectNoError(t, st.Err)
		switch st.Name {
		case EnvTargetName, "git":
			ExpectTrue(t, st.Installed)
			ExpectTrue(t, st.Present)
		case "curl":
			ExpectTrue(t, st.Installed)
			ExpectFalse(t, st.Present)
		default:
			ExpectFalse(t, st.Installed)
			ExpectFalse(t, st.Present)
		}
	}
}

func TestEffectiveProxy(t *testing.T) {
	env, _ := newTestEnv(t)
	target, _ := Lookup(EnvTargetName)

	vars, err := ReadEnvFile(env)
	ExpectNoError(t, err)
	ExpectEqual(t, len(vars), 0)

	plan := mustPlan(t, nil, "1.2.3.4:80", "", []string{"example.com"})
	_, err = target.Apply(context.Background(), env, plan.Config)
	ExpectNoError(t, err)

	vars, err = ReadEnvFile(env)
	ExpectNoError(t, err)
	ExpectEqual(t, vars["https_proxy"], "http://1.2.3.4:80")
	ExpectEqual(t, vars["NO_PROXY"], "example.com")

	u, err := EffectiveProxy(vars, "https://github.com")
	ExpectNoError(t, err)
	ExpectEqual(t, u.String(), "http://1.2.3.4:80")

	u, err = EffectiveProxy(vars, "https://example.com/path")
	ExpectNoError(t, err)
	ExpectTrue(t, u == nil)
}
