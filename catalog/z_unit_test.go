package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/randlab/scenario"
)

const dieYAML = `
name: loaded_die
id: 1001
kind: discrete
discrete:
  weights: [3, 1, 1, 1]
`

const covYAML = `
name: covgen
id: 2001
kind: wishart
wishart:
  df: 5.5
  scale:
    - [2.0, 0.3]
    - [0.3, 1.5]
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"loaded_die.yaml": {Data: []byte(dieYAML)},
		"covgen.yaml":     {Data: []byte(covYAML)},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = c.Register(
		Entry{SID: 1001, Name: "loaded_die", ConfigName: "loaded_die.yaml"},
		Entry{SID: 2001, Name: "CovGen", ConfigName: "covgen.yaml"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := c.GetByID(1001); !ok {
		t.Fatalf("lookup by id failed")
	}
	// name lookup is case-insensitive
	if _, ok := c.GetByName("covgen"); !ok {
		t.Fatalf("lookup by name failed")
	}

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1001 || ids[1] != 2001 {
		t.Fatalf("ids not sorted: %v", ids)
	}

	s, err := c.SettingById(2001)
	if err != nil {
		t.Fatalf("setting by id: %v", err)
	}
	if s.Kind != scenario.KindWishart || s.Wishart.Dim() != 2 {
		t.Fatalf("parsed setting mismatch: %+v", s)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c, _ := New(testFS())
	base := Entry{SID: 1, Name: "a", ConfigName: "loaded_die.yaml"}
	if err := c.Register(base); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := c.Register(Entry{SID: 1, Name: "b", ConfigName: "covgen.yaml"}); err != ErrDupID {
		t.Fatalf("expected ErrDupID, got %v", err)
	}
	if err := c.Register(Entry{SID: 2, Name: "a", ConfigName: "covgen.yaml"}); err != ErrDupName {
		t.Fatalf("expected ErrDupName, got %v", err)
	}
	if err := c.Register(Entry{SID: 2, Name: "b", ConfigName: "loaded_die.yaml"}); err == nil {
		t.Fatalf("expected duplicate config error")
	}
}

func TestRegisterValidatesFilenames(t *testing.T) {
	c, _ := New(testFS())
	bad := []string{"", "sub/dir.yaml", ".yaml", "noext", "missing.yaml"}
	for _, name := range bad {
		if err := c.Register(Entry{SID: 9, Name: "x", ConfigName: name}); err == nil {
			t.Fatalf("expected error for config name %q", name)
		}
	}
}

func TestFreeze(t *testing.T) {
	c, _ := New(testFS())
	c.Freeze()
	if !c.IsFrozen() {
		t.Fatalf("freeze flag not set")
	}
	if err := c.Register(Entry{SID: 1, Name: "a", ConfigName: "loaded_die.yaml"}); err == nil {
		t.Fatalf("register after freeze must fail")
	}
}

func TestMultiFSRejectsNestedDirs(t *testing.T) {
	nested := fstest.MapFS{
		"sub/x.yaml": {Data: []byte(dieYAML)},
	}
	if _, err := New(nested); err == nil {
		t.Fatalf("expected flat-FS violation")
	}
}
