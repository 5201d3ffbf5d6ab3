package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
	"github.com/arkline/lifeline/store/memory"
)

func newDispatch(name string, status dispatch.Status) *dispatch.Dispatch {
	return &dispatch.Dispatch{
		Entity: lifeline.NewEntity(),
		ID:     id.NewDispatchID(),
		Name:   name,
		Status: status,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	d := newDispatch("train-model", dispatch.StatusRunning)
	if err := s.CreateDispatch(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetDispatch(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "train-model" || got.Status != dispatch.StatusRunning {
		t.Errorf("got %+v", got)
	}

	// The stored copy must be isolated from caller mutations.
	d.Name = "mutated"
	got2, _ := s.GetDispatch(ctx, d.ID)
	if got2.Name != "train-model" {
		t.Errorf("store shares memory with caller: name = %q", got2.Name)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	d := newDispatch("dup", dispatch.StatusNewObject)
	if err := s.CreateDispatch(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateDispatch(ctx, d); !errors.Is(err, lifeline.ErrDispatchExists) {
		t.Errorf("error = %v, want ErrDispatchExists", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := memory.New()
	if _, err := s.GetDispatch(context.Background(), id.NewDispatchID()); !errors.Is(err, lifeline.ErrDispatchNotFound) {
		t.Errorf("error = %v, want ErrDispatchNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	d := newDispatch("job", dispatch.StatusNewObject)
	if err := s.CreateDispatch(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	d.Status = dispatch.StatusRunning
	if err := s.UpdateDispatch(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetDispatch(ctx, d.ID)
	if got.Status != dispatch.StatusRunning {
		t.Errorf("status = %s, want RUNNING", got.Status)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt %v not refreshed (created %v)", got.UpdatedAt, got.CreatedAt)
	}

	if err := s.UpdateDispatch(ctx, newDispatch("ghost", dispatch.StatusRunning)); !errors.Is(err, lifeline.ErrDispatchNotFound) {
		t.Errorf("update missing: error = %v, want ErrDispatchNotFound", err)
	}
}

func TestListDispatches_FilterAndPaginate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 7; i++ {
		d := newDispatch(fmt.Sprintf("run-%d", i), dispatch.StatusRunning)
		d.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.CreateDispatch(ctx, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := s.CreateDispatch(ctx, newDispatch(fmt.Sprintf("done-%d", i), dispatch.StatusCompleted)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	pg, err := s.ListDispatches(ctx, dispatch.ListOpts{Count: 3, Offset: 3, Status: dispatch.StatusRunning})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if pg.TotalCount != 7 {
		t.Errorf("TotalCount = %d, want 7 (all matching, not the page)", pg.TotalCount)
	}
	if len(pg.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(pg.Items))
	}
	for i, d := range pg.Items {
		want := fmt.Sprintf("run-%d", i+3)
		if d.Name != want {
			t.Errorf("item %d = %q, want %q (creation order)", i, d.Name, want)
		}
	}

	// Offset past the end yields an empty page with the true total.
	pg, err = s.ListDispatches(ctx, dispatch.ListOpts{Count: 3, Offset: 100, Status: dispatch.StatusRunning})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pg.Items) != 0 || pg.TotalCount != 7 {
		t.Errorf("past-end page: items = %d total = %d, want 0/7", len(pg.Items), pg.TotalCount)
	}
}

func TestCountDispatches(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := s.CreateDispatch(ctx, newDispatch("r", dispatch.StatusRunning)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateDispatch(ctx, newDispatch("f", dispatch.StatusFailed)); err != nil {
		t.Fatal(err)
	}

	if n, _ := s.CountDispatches(ctx, dispatch.StatusRunning); n != 4 {
		t.Errorf("running count = %d, want 4", n)
	}
	if n, _ := s.CountDispatches(ctx, ""); n != 5 {
		t.Errorf("total count = %d, want 5", n)
	}
}

func TestCancelDispatch(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	d := newDispatch("cancellable", dispatch.StatusRunning)
	if err := s.CreateDispatch(ctx, d); err != nil {
		t.Fatal(err)
	}

	if err := s.CancelDispatch(ctx, d.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := s.GetDispatch(ctx, d.ID)
	if got.Status != dispatch.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt not set on cancellation")
	}

	// Cancelling again is a no-op success.
	firstEnded := *got.EndedAt
	if err := s.CancelDispatch(ctx, d.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	got, _ = s.GetDispatch(ctx, d.ID)
	if !got.EndedAt.Equal(firstEnded) {
		t.Error("second cancel changed EndedAt")
	}
}

func TestCancelDispatch_TerminalUntouched(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	d := newDispatch("finished", dispatch.StatusCompleted)
	if err := s.CreateDispatch(ctx, d); err != nil {
		t.Fatal(err)
	}

	if err := s.CancelDispatch(ctx, d.ID); err != nil {
		t.Fatalf("cancel terminal: %v", err)
	}
	got, _ := s.GetDispatch(ctx, d.ID)
	if got.Status != dispatch.StatusCompleted {
		t.Errorf("terminal status overwritten to %s", got.Status)
	}
}

func TestCancelDispatch_NotFound(t *testing.T) {
	s := memory.New()
	if err := s.CancelDispatch(context.Background(), id.NewDispatchID()); !errors.Is(err, lifeline.ErrDispatchNotFound) {
		t.Errorf("error = %v, want ErrDispatchNotFound", err)
	}
}
