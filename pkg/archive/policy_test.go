package archive

import "testing"

func TestPolicy_IndexingDisabled(t *testing.T) {
	// Indexing off hides the feature for every format, enabled or not.
	policy := NewPolicy(true, true, true, false)
	for _, format := range Formats {
		if got := policy.Decide(format); got != NotFound {
			t.Errorf("Decide(%s) = %d, want NotFound", format, got)
		}
	}
}

func TestPolicy_FormatToggles(t *testing.T) {
	cases := []struct {
		name    string
		policy  Policy
		allowed map[Format]bool
	}{
		{"none enabled", NewPolicy(false, false, false, true), map[Format]bool{}},
		{"tar.gz only", NewPolicy(true, false, false, true), map[Format]bool{FormatTarGz: true}},
		{"tar only", NewPolicy(false, true, false, true), map[Format]bool{FormatTar: true}},
		{"zip only", NewPolicy(false, false, true, true), map[Format]bool{FormatZip: true}},
		{"all enabled", NewPolicy(true, true, true, true), map[Format]bool{FormatTarGz: true, FormatTar: true, FormatZip: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, format := range Formats {
				want := Forbidden
				if tc.allowed[format] {
					want = Allowed
				}
				if got := tc.policy.Decide(format); got != want {
					t.Errorf("Decide(%s) = %d, want %d", format, got, want)
				}
			}
		})
	}
}

func TestPolicy_UnknownFormat(t *testing.T) {
	policy := NewPolicy(true, true, true, true)
	if got := policy.Decide(Format("rar")); got != Forbidden {
		t.Errorf("Decide(rar) = %d, want Forbidden", got)
	}
}
