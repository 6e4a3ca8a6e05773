package cli

import "testing"

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		raw, priceType string
		want           int64
		wantErr        bool
	}{
		{raw: "2500000", priceType: "yang", want: 2500000},
		{raw: "1.5", priceType: "won", want: 150000000},
		{raw: "3", priceType: "WON", want: 300000000},
		{raw: "1.5", priceType: "yang", wantErr: true},
		{raw: "0.000000001", priceType: "won", wantErr: true},
		{raw: "0", priceType: "yang", wantErr: true},
		{raw: "-5", priceType: "yang", wantErr: true},
		{raw: "abc", priceType: "yang", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseThreshold(tc.raw, tc.priceType)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseThreshold(%q, %q) expected error, got %d", tc.raw, tc.priceType, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseThreshold(%q, %q) unexpected error: %v", tc.raw, tc.priceType, err)
		}
		if got != tc.want {
			t.Fatalf("parseThreshold(%q, %q) = %d, want %d", tc.raw, tc.priceType, got, tc.want)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Fatalf("parseID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"0", "-3", "x"} {
		if _, err := parseID(raw); err == nil {
			t.Fatalf("parseID(%q) expected error", raw)
		}
	}
}
