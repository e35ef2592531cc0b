package permission

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryRegisterAndFreeze(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("role/teacher"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("role/teacher"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := r.Register(""); err == nil {
		t.Fatal("expected empty name to fail")
	}
	if err := r.Register("a,b"); err == nil {
		t.Fatal("expected delimiter in name to fail")
	}

	r.Freeze()
	if !r.Frozen() {
		t.Fatal("expected registry to be frozen")
	}
	if err := r.Register("role/admin"); !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
	if r.Count() != 1 || !r.Has("role/teacher") || r.Has("role/admin") {
		t.Fatalf("unexpected registry contents: %v", r.Names())
	}
}

func TestRegistryValidate(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("a")
	_ = r.Register("b")
	r.Freeze()

	if err := r.Validate([]string{"b", "a", "a"}); err != nil {
		t.Fatalf("expected known names to validate: %v", err)
	}
	if err := r.Validate(nil); err != nil {
		t.Fatalf("expected empty list to validate: %v", err)
	}
	err := r.Validate([]string{"a", "c"})
	if !errors.Is(err, ErrUnknownPermission) {
		t.Fatalf("expected ErrUnknownPermission, got %v", err)
	}
	if !strings.Contains(err.Error(), `"c"`) {
		t.Fatalf("expected offending name in error, got %v", err)
	}
}

func TestRegistryNamesPreservesOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"z", "a", "m"} {
		_ = r.Register(n)
	}
	names := r.Names()
	if strings.Join(names, ",") != "z,a,m" {
		t.Fatalf("unexpected order %v", names)
	}
	names[0] = "mutated"
	if r.Names()[0] != "z" {
		t.Fatal("Names must return a copy")
	}
}

func TestCatalogRegistry(t *testing.T) {
	current := NewCatalogRegistry(false)
	all := NewCatalogRegistry(true)

	if !current.Frozen() || !all.Frozen() {
		t.Fatal("expected catalog registries to be frozen")
	}
	if !current.Has(string(OrganizerAll)) || !current.Has(string(Licensing)) {
		t.Fatal("expected current permissions to be registered")
	}
	if current.Has(string(OrgCEFMenu)) {
		t.Fatal("expected deprecated permissions to be excluded")
	}
	if !all.Has(string(OrgCEFMenu)) {
		t.Fatal("expected deprecated permissions to be included")
	}
	if all.Count() != len(catalog) {
		t.Fatalf("expected %d names, got %d", len(catalog), all.Count())
	}
}

func TestCatalogFullNames(t *testing.T) {
	cases := map[Permission]string{
		OrganizerAll:   "Q-Organizer/all",
		PlayerStudent:  "Q‐Player/student",
		PlannerTeacher: "Q‐Planner/teacher",
		MonitorNetwork: "Q‐Monitor/network",
		UserManagement: "user_management",
		OrgCEFMediaAdd: "Q-Organizer/CEF/add media",
	}
	for p, want := range cases {
		if got := p.FullName(); got != want {
			t.Fatalf("%s: expected %q, got %q", p, want, got)
		}
	}

	if Permission("nope").Known() || Permission("nope").FullName() != "" {
		t.Fatal("expected unknown permission to have no catalog entry")
	}
	if !OrganizerWhatever.Deprecated() || OrganizerAll.Deprecated() {
		t.Fatal("unexpected deprecation flags")
	}
	if p, ok := Lookup("QPLAYER_TEACHER"); !ok || p != PlayerTeacher {
		t.Fatalf("unexpected Lookup result %q %v", p, ok)
	}
	if _, ok := Lookup("Q-Organizer/all"); ok {
		t.Fatal("Lookup takes identifiers, not full names")
	}
}

func TestCatalogIdentifiersAreTokenSafe(t *testing.T) {
	for p := range catalog {
		if strings.Contains(string(p), ",") || p == "" {
			t.Fatalf("catalog identifier %q cannot be carried in a token", p)
		}
	}
	if got := Names([]Permission{PlayerStudent, Licensing}); strings.Join(got, ",") != "QPLAYER_STUDENT,LICENSING" {
		t.Fatalf("unexpected names %v", got)
	}
	if Names(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
