package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTenantResolve(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{host: "acme.hr-ify.com", want: "x-tenant=acme x-tenant-type=company"},
		{host: "hr-ify.com", want: "x-tenant=base x-tenant-type=base"},
		{host: "localhost:3000", want: "x-tenant=base x-tenant-type=base"},
	}
	for _, tc := range tests {
		out, err := run(t, "tenant", "resolve", tc.host, "--base-domain", "hr-ify.com")
		if err != nil {
			t.Fatalf("%s: %v", tc.host, err)
		}
		if strings.TrimSpace(out) != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.host, tc.want, out)
		}
	}
}

func TestDraftShowRequiresUser(t *testing.T) {
	if _, err := run(t, "draft", "show"); err == nil {
		t.Fatal("expected missing --user error")
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "migrate")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}
