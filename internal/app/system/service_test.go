package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name    string
	journal *[]string
	failOn  string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.journal = append(*s.journal, "start:"+s.name)
	if s.failOn == "start" {
		return errors.New("boom")
	}
	return nil
}

func (s *recordingService) Stop(context.Context) error {
	*s.journal = append(*s.journal, "stop:"+s.name)
	if s.failOn == "stop" {
		return errors.New("boom")
	}
	return nil
}

func TestManagerOrdering(t *testing.T) {
	var journal []string
	m := NewManager()
	for _, name := range []string{"a", "b"} {
		if err := m.Register(&recordingService{name: name, journal: &journal}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(journal) != len(want) {
		t.Fatalf("expected %v, got %v", want, journal)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, journal)
		}
	}
}

func TestManagerRollbackOnStartFailure(t *testing.T) {
	var journal []string
	m := NewManager()
	if err := m.Register(&recordingService{name: "a", journal: &journal}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(&recordingService{name: "b", journal: &journal, failOn: "start"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	want := []string{"start:a", "start:b", "stop:a"}
	for i := range want {
		if journal[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, journal)
		}
	}
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager()
	if err := m.Register(NoopService{ServiceName: "x"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(NoopService{ServiceName: "x"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
