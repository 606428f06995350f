package profile

import "testing"

func TestMake(t *testing.T) {
	p := Make(WithMode("cpu"), WithPath("/tmp/x"), WithQuiet(true))

	if p.Mode != "cpu" || p.Path != "/tmp/x" || !p.Quiet {
		t.Errorf("Make() = %+v", p)
	}

	if Make() != (Profiler{}) {
		t.Errorf("Make() without options = %+v", Make())
	}
}

func TestStart_NoMode(t *testing.T) {
	s := Make(WithPath(t.TempDir())).Start()

	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() without mode = %T, want no-op", s)
	}

	s.Stop()
}

func TestStart_UnknownMode(t *testing.T) {
	s := Make(WithMode("bogus"), WithQuiet(true)).Start()

	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() with unknown mode = %T, want no-op", s)
	}

	s.Stop()
}
