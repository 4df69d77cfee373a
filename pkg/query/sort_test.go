package query

import "testing"

func TestSortDocs_MultiFieldStable(t *testing.T) {
	docs := []map[string]any{
		{"dept": "eng", "name": "b"},
		{"dept": "eng", "name": "a"},
		{"dept": "sales", "name": "z"},
	}
	SortDocs(docs, []SortField{{Field: "dept"}, {Field: "name"}})

	order := []string{docs[0]["name"].(string), docs[1]["name"].(string), docs[2]["name"].(string)}
	want := []string{"a", "b", "z"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
}

func TestSortDocs_DescendingDirection(t *testing.T) {
	docs := []map[string]any{
		{"score": float64(1)},
		{"score": float64(3)},
		{"score": float64(2)},
	}
	SortDocs(docs, []SortField{{Field: "score", Desc: true}})
	if docs[0]["score"].(float64) != 3 || docs[2]["score"].(float64) != 1 {
		t.Fatalf("expected descending order, got %v", docs)
	}
}

func TestSortDocs_NullsSortLast(t *testing.T) {
	docs := []map[string]any{
		{"score": nil},
		{"score": float64(5)},
		{}, // missing key entirely
	}
	SortDocs(docs, []SortField{{Field: "score"}})
	if docs[0]["score"] != float64(5) {
		t.Fatalf("expected non-null value first, got %v", docs)
	}
}
