package scenario

import "testing"

func TestMatchName(t *testing.T) {
	tests := []struct {
		name  string
		got   string
		want  string
		exact bool
		match bool
	}{
		{"Same", "Google Drive", "Google Drive", false, true},
		{"Case insensitive", "google drive", "Google Drive", false, true},
		{"Substring", "Open Google Drive", "Google Drive", false, true},
		{"Collapsed whitespace", "Google\n   Drive ", "Google Drive", false, true},
		{"Other button", "Gmail", "Google Drive", false, false},
		{"Empty name", "", "Google Drive", false, false},
		{"Exact same", "Google Drive", "Google Drive", true, true},
		{"Exact trims", "  Google Drive\t", "Google Drive", true, true},
		{"Exact case", "google drive", "Google Drive", true, false},
		{"Exact substring", "Open Google Drive", "Google Drive", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchName(tt.got, tt.want, tt.exact); got != tt.match {
				t.Errorf("matchName(%q, %q, %v) = %v, want %v", tt.got, tt.want, tt.exact, got, tt.match)
			}
		})
	}
}

func TestAXStringNil(t *testing.T) {
	if axString(nil) != "" {
		t.Fatalf("Nil accessibility value should be empty")
	}
}
