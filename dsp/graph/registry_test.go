package graph

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	factory := func(Params) (Unit, error) { return newSummer("p", 0, nil), nil }

	if err := r.Register("summer", factory); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Register("summer", factory); err == nil {
		t.Fatal("expected duplicate error")
	}

	if err := r.Register("", factory); err == nil {
		t.Fatal("expected empty type error")
	}

	if err := r.Register("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}

	if r.Lookup("summer") == nil || r.Lookup("missing") != nil {
		t.Fatal("unexpected lookup result")
	}
}

func TestRegistryMustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("x", func(Params) (Unit, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate MustRegister")
		}
	}()

	r.MustRegister("x", func(Params) (Unit, error) { return nil, nil })
}

func TestDefaultRegistryTypes(t *testing.T) {
	r := DefaultRegistry()

	for _, typ := range []string{"oscillator", "sine", "envelope", "delay", "distortion", "value"} {
		factory := r.Lookup(typ)
		if factory == nil {
			t.Fatalf("missing %q", typ)
		}

		u, err := factory(Params{ID: typ, Type: typ})
		if err != nil {
			t.Fatalf("%s factory error = %v", typ, err)
		}

		if len(u.Outputs()) == 0 {
			t.Fatalf("%s has no outputs", typ)
		}
	}

	if r.Types() != 6 {
		t.Fatalf("Types()=%d, want 6", r.Types())
	}
}

func TestParamsAccessors(t *testing.T) {
	num, str := parseParams(map[string]any{
		"a":    3,
		"b":    2.5,
		"on":   true,
		"off":  false,
		"mode": "Ratio",
	})
	p := Params{Num: num, Str: str}

	if p.GetNum("a", 0) != 3 || p.GetNum("b", 0) != 2.5 || p.GetNum("missing", 7) != 7 {
		t.Fatalf("GetNum mismatch: %+v", num)
	}

	if p.GetStr("mode", "") != "ratio" || p.GetStr("missing", "x") != "x" {
		t.Fatal("GetStr mismatch")
	}

	if !p.GetBool("on") || p.GetBool("off") || p.GetBool("missing") {
		t.Fatal("GetBool mismatch")
	}

	if (Params{}).GetNum("a", 1) != 1 {
		t.Fatal("nil map should return default")
	}
}
