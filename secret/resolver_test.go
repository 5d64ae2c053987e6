package secret

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name   string
	values map[string]string
	err    error
	closed bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:TAOSTATS_API_KEY", "env", "TAOSTATS_API_KEY", true},
		{"secretref:file:/run/secrets/key:v2", "file", "/run/secrets/key:v2", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"tao-plain-key", "", "", false},
	}

	for _, tt := range tests {
		provider, ref, ok := ParseSecretRef(tt.in)
		if provider != tt.provider || ref != tt.ref || ok != tt.ok {
			t.Errorf("ParseSecretRef(%q) = %q, %q, %v", tt.in, provider, ref, ok)
		}
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("TAOSTATS_REF", "secretref:stub:alpha")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one", "beta": "two"}})

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"secretref:stub:alpha", "one"},
		{"${TAOSTATS_REF}", "one"},
		{"key=secretref:stub:alpha alt=secretref:stub:beta", "key=one alt=two"},
	}

	for _, tt := range tests {
		got, err := r.ResolveValue(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("ResolveValue(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ResolveValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_Errors(t *testing.T) {
	boom := errors.New("explode")
	r := NewResolver(true,
		&stubProvider{name: "stub", values: map[string]string{"empty": ""}},
		&stubProvider{name: "broken", err: boom},
	)

	tests := []struct {
		in   string
		want error
	}{
		{"secretref:stub:empty", ErrEmptySecret},
		{"secretref:missing:x", ErrProviderNotRegistered},
		{"Bearer secretref:missing:x", ErrProviderNotRegistered},
		{"secretref:broken:x", boom},
		{"${TAOSTATS_UNSET_FOR_TEST}", ErrMissingEnv},
	}

	for _, tt := range tests {
		if _, err := r.ResolveValue(context.Background(), tt.in); !errors.Is(err, tt.want) {
			t.Errorf("ResolveValue(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestResolver_LenientAllowsEmpty(t *testing.T) {
	r := NewResolver(false, &stubProvider{name: "stub"})
	got, err := r.ResolveValue(context.Background(), "secretref:stub:anything")
	if err != nil || got != "" {
		t.Errorf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_NilOnlyExpandsEnv(t *testing.T) {
	t.Setenv("TAOSTATS_TEST_KEY", "k")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "${TAOSTATS_TEST_KEY}")
	if err != nil || got != "k" {
		t.Errorf("ResolveValue() = %q, %v", got, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &stubProvider{name: "stub"}
	r := NewResolver(true, p, nil)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !p.closed {
		t.Error("provider not closed")
	}
}
