package cli

import "testing"

func TestResolvePortPrecedence(t *testing.T) {
	cases := []struct {
		name                   string
		flag, env, config, out string
	}{
		{"flag wins", "9000", "9001", "9002", "9000"},
		{"env beats config", "", "9001", "9002", "9001"},
		{"config when flag and env unset", "", "", "9002", "9002"},
		{"default", "", "", "", "8080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolvePort(tc.flag, tc.env, tc.config); got != tc.out {
				t.Fatalf("resolvePort(%q, %q, %q) = %q, want %q", tc.flag, tc.env, tc.config, got, tc.out)
			}
		})
	}
}
