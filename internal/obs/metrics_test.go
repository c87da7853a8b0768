package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                "/",
		"/metrics":                        "/metrics",
		"/api/temperatures":               "/api/temperatures",
		"/api/temperatures?machineId=3":   "/api/temperatures",
		"/api/out-of-stock":               "/api/out-of-stock",
		"/api/out-of-stock/abc":           "/api/out-of-stock/:id",
		"/api/out-of-stock/abc/restock":   "/api/out-of-stock/:id/restock",
		"/api/out-of-stock/a/b/c":         "/api/out-of-stock/a/b/c",
		"/api/stores/login":               "/api/stores/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
