package router

import "testing"

func TestRouter_ResolveURL(t *testing.T) {
	r := New(Config{
		BaseURL:     "https://primary.example/api",
		DtaoBaseURL: "https://primary.example/api/dtao",
	})

	tests := []struct {
		name     string
		endpoint string
		version  string
		useDtao  bool
		want     string
	}{
		{
			name:     "primary with version",
			endpoint: "price",
			version:  "v1",
			want:     "https://primary.example/api/price/v1",
		},
		{
			name:     "nested primary path",
			endpoint: "price/latest",
			version:  "v1",
			want:     "https://primary.example/api/price/latest/v1",
		},
		{
			name:     "dtao prefix stays on primary base without version",
			endpoint: "dtao/pools",
			version:  "v1",
			want:     "https://primary.example/api/dtao/pools",
		},
		{
			name:     "dtao flag selects dtao base",
			endpoint: "tradingview/udf/history",
			version:  "v1",
			useDtao:  true,
			want:     "https://primary.example/api/dtao/tradingview/udf/history",
		},
		{
			name:     "dtao flag wins over prefix",
			endpoint: "dtao/pools",
			version:  "v2",
			useDtao:  true,
			want:     "https://primary.example/api/dtao/dtao/pools",
		},
		{
			name:     "other version",
			endpoint: "stats/latest",
			version:  "v2",
			want:     "https://primary.example/api/stats/latest/v2",
		},
		{
			name:     "prefix is case-sensitive",
			endpoint: "DTAO/pools",
			version:  "v1",
			want:     "https://primary.example/api/DTAO/pools/v1",
		},
		{
			name:     "malformed endpoint passes through",
			endpoint: "",
			version:  "v1",
			want:     "https://primary.example/api//v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := r.ResolveURL(tt.endpoint, tt.version, tt.useDtao)
			if got != tt.want {
				t.Errorf("ResolveURL(%q, %q, %v) = %q, want %q", tt.endpoint, tt.version, tt.useDtao, got, tt.want)
			}
		})
	}
}

func TestRouter_Defaults(t *testing.T) {
	r := New(Config{})

	got, _ := r.ResolveURL("price", "v1", false)
	if want := DefaultBaseURL + "/price/v1"; got != want {
		t.Errorf("primary URL = %q, want %q", got, want)
	}

	got, _ = r.ResolveURL("tradingview/udf/history", "v1", true)
	if want := DefaultDtaoBaseURL + "/tradingview/udf/history"; got != want {
		t.Errorf("dtao URL = %q, want %q", got, want)
	}
}

func TestRouter_TrailingSlashTrimmed(t *testing.T) {
	r := New(Config{BaseURL: "http://localhost:8080/api/"})
	got, _ := r.ResolveURL("block", "v1", false)
	if want := "http://localhost:8080/api/block/v1"; got != want {
		t.Errorf("ResolveURL = %q, want %q", got, want)
	}
}

func TestRouter_AuthorizationHeader(t *testing.T) {
	t.Run("key configured", func(t *testing.T) {
		r := New(Config{APIKey: "tao-secret"})
		_, h := r.ResolveURL("price", "v1", false)
		if got := h.Get("Authorization"); got != "tao-secret" {
			t.Errorf("Authorization = %q, want raw key", got)
		}
	})

	t.Run("no key", func(t *testing.T) {
		r := New(Config{})
		_, h := r.ResolveURL("price", "v1", false)
		if _, ok := h["Authorization"]; ok {
			t.Error("Authorization header present without a key")
		}
	})
}

func TestRouter_HeadersNotShared(t *testing.T) {
	r := New(Config{APIKey: "k"})
	_, h1 := r.ResolveURL("price", "v1", false)
	h1.Set("Authorization", "mutated")

	_, h2 := r.ResolveURL("price", "v1", false)
	if got := h2.Get("Authorization"); got != "k" {
		t.Errorf("second call Authorization = %q, want %q", got, "k")
	}
}

func TestRouter_Pure(t *testing.T) {
	r := New(Config{APIKey: "k"})
	u1, h1 := r.ResolveURL("subnet/distribution/ip", "v1", false)
	u2, h2 := r.ResolveURL("subnet/distribution/ip", "v1", false)
	if u1 != u2 || h1.Get("Authorization") != h2.Get("Authorization") {
		t.Error("ResolveURL is not deterministic")
	}
}
