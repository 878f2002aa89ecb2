package language

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"de", "de", true},
		{" DE ", "de", true},
		{"German", "de", true},
		{"chinese (TRADITIONAL)", "zt", true},
		{"auto", "auto", true},
		{"Auto", "auto", true},
		{"xx", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(tt.in)
		if ok != tt.ok || got.Code != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.in, got.Code, ok, tt.want, tt.ok)
		}
	}
}

func TestGetIsExact(t *testing.T) {
	if _, ok := Get("DE"); ok {
		t.Fatal("Get should not fold case")
	}
	if lang, ok := Get("he"); !ok || lang.Name != "Hebrew" {
		t.Fatalf("Get(he) = %+v, %v", lang, ok)
	}
}

func TestSupportedSorted(t *testing.T) {
	list := Supported()
	if len(list) != len(Languages) {
		t.Fatalf("Supported() returned %d entries, want %d", len(list), len(Languages))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Fatalf("not sorted at %d: %q > %q", i, list[i-1].Name, list[i].Name)
		}
	}
	for code, lang := range Languages {
		if lang.Code != code {
			t.Errorf("Languages[%q].Code = %q", code, lang.Code)
		}
	}
}
