package query

import (
	"testing"
	"time"

	"github.com/parquedb/parquedb/pkg/model"
)

type fakeSource struct {
	groups   []RowGroupMeta
	rows     map[int][]*model.Entity
	byID     map[string]*model.Entity
	readCall int
}

func (s *fakeSource) RowGroups() []RowGroupMeta { return s.groups }

func (s *fakeSource) ReadRowGroup(index int) ([]*model.Entity, error) {
	s.readCall++
	return s.rows[index], nil
}

func (s *fakeSource) GetByID(id string) (*model.Entity, bool, error) {
	e, ok := s.byID[id]
	return e, ok, nil
}

func entity(id, typ string, age float64) *model.Entity {
	return &model.Entity{
		ID: id, Type: typ, Version: 1, CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0),
		Fields: map[string]any{"age": age},
	}
}

func newFakeSource() *fakeSource {
	e1 := entity("e1", "user", 20)
	e2 := entity("e2", "user", 40)
	e3 := entity("e3", "user", 60)
	return &fakeSource{
		groups: []RowGroupMeta{
			{Index: 0, Stats: statsFor("age", float64(20), float64(40))},
			{Index: 1, Stats: statsFor("age", float64(60), float64(60))},
		},
		rows: map[int][]*model.Entity{
			0: {e1, e2},
			1: {e3},
		},
		byID: map[string]*model.Entity{"e1": e1, "e2": e2, "e3": e3},
	}
}

func TestExecutor_Find_PrunesRowGroupsViaStats(t *testing.T) {
	src := newFakeSource()
	ex := NewExecutor("ns", src)

	results, err := ex.Find(map[string]any{"age": map[string]any{"$gt": float64(50)}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0]["$id"] != "e3" {
		t.Fatalf("unexpected results: %v", results)
	}
	if src.readCall != 1 {
		t.Fatalf("expected only the surviving row group to be read, got %d reads", src.readCall)
	}
}

func TestExecutor_Find_DirectIDFastPath(t *testing.T) {
	src := newFakeSource()
	ex := NewExecutor("ns", src)

	results, err := ex.Find(map[string]any{"$id": "e2"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0]["$id"] != "e2" {
		t.Fatalf("unexpected results: %v", results)
	}
	if src.readCall != 0 {
		t.Fatalf("expected the $id fast path to skip row-group reads, got %d reads", src.readCall)
	}
}

type fakeTextSearcher struct{ ids []string }

func (f fakeTextSearcher) SearchText(q string) []string { return f.ids }

func TestExecutor_Find_TextRoutesToSearcherAndIntersects(t *testing.T) {
	src := newFakeSource()
	ex := NewExecutor("ns", src).WithTextSearcher(fakeTextSearcher{ids: []string{"e1"}})

	results, err := ex.Find(map[string]any{"$text": "hello"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0]["$id"] != "e1" {
		t.Fatalf("unexpected results: %v", results)
	}
}

func TestExecutor_Find_SortSkipLimitAndProjection(t *testing.T) {
	src := newFakeSource()
	ex := NewExecutor("ns", src)

	results, err := ex.Find(map[string]any{}, Options{
		Sort:       []SortField{{Field: "age", Desc: true}},
		Skip:       1,
		Limit:      1,
		Projection: Projection{Include: []string{"age"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result after skip/limit, got %v", results)
	}
	if _, hasID := results[0]["$id"]; hasID {
		t.Fatalf("expected projection to drop $id, got %v", results[0])
	}
	if results[0]["age"] != float64(40) {
		t.Fatalf("expected second-highest age after descending sort+skip, got %v", results[0])
	}
}
