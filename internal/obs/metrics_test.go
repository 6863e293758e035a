package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                            "/",
		"/metrics":                    "/metrics",
		"/health":                     "/health",
		"/api/budgets":                "/api/budgets",
		"/api/budgets/01ABC":          "/api/budgets/:id",
		"/api/budgets/01ABC/extra":    "/api/budgets/01ABC/extra",
		"/api/transactions/01ABC":     "/api/transactions/:id",
		"/api/transactions/inRange":   "/api/transactions/inRange",
		"/api/budgets?limit=10":       "/api/budgets",
		"/api/transactions/x?foo=bar": "/api/transactions/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
