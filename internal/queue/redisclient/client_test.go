package redisclient

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "contacts:jobs:ready"},
		{prefix: "staging", want: "staging:jobs:ready"},
		{prefix: "staging:", want: "staging:jobs:ready"},
	}

	for _, tt := range tests {
		c := New(Config{Addr: "localhost:6379", KeyPrefix: tt.prefix})
		if got := c.Key("jobs:ready"); got != tt.want {
			t.Fatalf("prefix %q: got %q, want %q", tt.prefix, got, tt.want)
		}
		_ = c.Close()
	}
}
