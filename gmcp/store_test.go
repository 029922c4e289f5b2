package gmcp

import "testing"

func TestStoreUpdateAndGet(t *testing.T) {
	s := NewStore()
	s.Update("room.info", []byte(`{"name":"Temple Square","zone":"Midgaard"}`))

	got, ok := s.Get("room.info.zone")
	if !ok {
		t.Fatal("expected room.info.zone present")
	}
	if got != "Midgaard" {
		t.Errorf("got %v", got)
	}
}

func TestStoreDeepPathCreatesIntermediates(t *testing.T) {
	s := NewStore()
	s.Update("char.worth.gold", []byte(`120`))

	if got, ok := s.Get("char.worth.gold"); !ok || got != float64(120) {
		t.Errorf("got %v, %v", got, ok)
	}
	if _, ok := s.Get("char.worth"); !ok {
		t.Error("intermediate object missing")
	}
}

func TestStoreMissingPath(t *testing.T) {
	s := NewStore()
	s.Update("group", []byte(`{"count":2}`))

	if _, ok := s.Get("group.count.extra"); ok {
		t.Error("descending through a leaf should fail")
	}
	if _, ok := s.Get("party"); ok {
		t.Error("unknown key should fail")
	}
}

func TestStoreNonJSONBody(t *testing.T) {
	s := NewStore()
	s.Update("core.ping", []byte(`pong`))

	if got, _ := s.Get("core.ping"); got != "pong" {
		t.Errorf("got %v", got)
	}
}
