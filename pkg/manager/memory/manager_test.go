package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/query"
)

func newDoc(collection string, fields ...document.Field) document.Document {
	doc := document.New(collection)
	for _, f := range fields {
		doc.Append(f.Name, f.Value)
	}
	return doc
}

func insertPeople(t *testing.T, m *Manager) {
	t.Helper()
	people := []struct {
		id   int64
		name string
		age  int64
	}{
		{1, "Ada", 36},
		{2, "Bob", 17},
		{3, "Carol", 70},
		{4, "Dan", 25},
	}
	for _, p := range people {
		doc := newDoc("people",
			document.Field{Name: "native_id", Value: p.id},
			document.Field{Name: "name", Value: p.name},
			document.Field{Name: "age", Value: p.age},
		)
		if _, err := m.Insert(context.Background(), doc, 0); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
}

func collect(t *testing.T, stream document.Stream) []document.Document {
	t.Helper()
	var out []document.Document
	for stream.Next() {
		out = append(out, stream.Document())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("stream close error = %v", err)
	}
	return out
}

func TestManager_InsertAssignsID(t *testing.T) {
	m := NewManager(nil)

	doc := newDoc("items", document.Field{Name: "name", Value: "thing"})
	stored, err := m.Insert(context.Background(), doc, 0)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	id, ok := stored.Get("_id")
	if !ok || id == "" {
		t.Fatalf("expected store-assigned _id, got %v", id)
	}
}

func TestManager_SelectByPredicate(t *testing.T) {
	m := NewManager(nil)
	insertPeople(t, m)

	tests := []struct {
		name  string
		build func() (query.Query, error)
		want  []string
	}{
		{
			name:  "eq",
			build: func() (query.Query, error) { return query.From("people").Where("name").Eq("Ada").Build() },
			want:  []string{"Ada"},
		},
		{
			name:  "gte",
			build: func() (query.Query, error) { return query.From("people").Where("age").Gte(36).Build() },
			want:  []string{"Ada", "Carol"},
		},
		{
			name: "and",
			build: func() (query.Query, error) {
				return query.From("people").Where("age").Gt(18).And("age").Lt(40).Build()
			},
			want: []string{"Ada", "Dan"},
		},
		{
			name: "or",
			build: func() (query.Query, error) {
				return query.From("people").Where("age").Lt(18).Or("age").Gt(65).Build()
			},
			want: []string{"Bob", "Carol"},
		},
		{
			name:  "not",
			build: func() (query.Query, error) { return query.From("people").Where("name").Not().Eq("Ada").Build() },
			want:  []string{"Bob", "Carol", "Dan"},
		},
		{
			name:  "like prefix",
			build: func() (query.Query, error) { return query.From("people").Where("name").Like("Da%").Build() },
			want:  []string{"Dan"},
		},
		{
			name: "in",
			build: func() (query.Query, error) {
				return query.From("people").Where("name").In("Ada", "Bob").Build()
			},
			want: []string{"Ada", "Bob"},
		},
		{
			name: "between",
			build: func() (query.Query, error) {
				return query.From("people").Where("age").Between(18, 40).Build()
			},
			want: []string{"Ada", "Dan"},
		},
		{
			name:  "match all",
			build: func() (query.Query, error) { return query.From("people").Build() },
			want:  []string{"Ada", "Bob", "Carol", "Dan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			stream, err := m.Select(context.Background(), q)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			var names []string
			for _, doc := range collect(t, stream) {
				n, _ := doc.Get("name")
				names = append(names, n.(string))
			}
			if len(names) != len(tt.want) {
				t.Fatalf("names = %v, want %v", names, tt.want)
			}
			for i := range tt.want {
				if names[i] != tt.want[i] {
					t.Fatalf("names = %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestManager_SelectSortAndWindow(t *testing.T) {
	m := NewManager(nil)
	insertPeople(t, m)

	q, err := query.From("people").
		OrderBy("age", query.SortDesc).
		Skip(1).
		Limit(2).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	stream, err := m.Select(context.Background(), q)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	docs := collect(t, stream)
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	// Ages sorted desc: 70, 36, 25, 17 -> skip 1, limit 2 -> 36, 25.
	first, _ := docs[0].Get("age")
	second, _ := docs[1].Get("age")
	if first != int64(36) || second != int64(25) {
		t.Fatalf("ages = %v, %v, want 36, 25", first, second)
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager(nil)
	insertPeople(t, m)

	updated := newDoc("people",
		document.Field{Name: "native_id", Value: int64(1)},
		document.Field{Name: "name", Value: "Ada Lovelace"},
		document.Field{Name: "age", Value: int64(37)},
	)
	out, err := m.Update(context.Background(), updated)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if name, _ := out.Get("name"); name != "Ada Lovelace" {
		t.Fatalf("returned name = %v", name)
	}

	q, _ := query.From("people").Where("native_id").Eq(int64(1)).Build()
	stream, err := m.Select(context.Background(), q)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	docs := collect(t, stream)
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if name, _ := docs[0].Get("name"); name != "Ada Lovelace" {
		t.Fatalf("stored name = %v", name)
	}
}

func TestManager_UpdateMissing(t *testing.T) {
	m := NewManager(nil)
	doc := newDoc("people", document.Field{Name: "native_id", Value: int64(99)})
	if _, err := m.Update(context.Background(), doc); !errors.Is(err, manager.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager(nil)
	insertPeople(t, m)

	dq, err := query.DeleteFrom("people").Where("age").Lt(18).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := m.Delete(context.Background(), dq); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	q, _ := query.From("people").Build()
	count, err := m.Count(context.Background(), q)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestManager_DeleteEvalErrorLeavesRecordsIntact(t *testing.T) {
	m := NewManager(nil)
	for _, name := range []string{"Ada", "Bob"} {
		doc := newDoc("people", document.Field{Name: "name", Value: name})
		if _, err := m.Insert(context.Background(), doc, 0); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	tagged := newDoc("people",
		document.Field{Name: "name", Value: "Carol"},
		document.Field{Name: "tag", Value: "x"},
	)
	if _, err := m.Insert(context.Background(), tagged, 0); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Matches Ada, then errors on Carol: her "tag" field is present but the
	// In operand is not a value sequence.
	dq := query.DeleteQuery{
		Collection: "people",
		Condition: &query.Condition{
			Operator: query.OpOr,
			Children: []query.Condition{
				{Operator: query.OpEqual, Field: "name", Value: "Ada"},
				{Operator: query.OpIn, Field: "tag", Value: 42},
			},
		},
	}
	if err := m.Delete(context.Background(), dq); err == nil {
		t.Fatal("Delete() with a malformed predicate should fail")
	}

	q, _ := query.From("people").Build()
	stream, err := m.Select(context.Background(), q)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	var names []string
	for _, doc := range collect(t, stream) {
		n, _ := doc.Get("name")
		names = append(names, n.(string))
	}
	want := []string{"Ada", "Bob", "Carol"}
	if len(names) != len(want) {
		t.Fatalf("names after failed delete = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names after failed delete = %v, want %v", names, want)
		}
	}
}

func TestManager_TTLExpiry(t *testing.T) {
	m := NewManager(nil)
	now := time.Now()
	m.now = func() time.Time { return now }

	doc := newDoc("sessions", document.Field{Name: "token", Value: "abc"})
	if _, err := m.Insert(context.Background(), doc, time.Minute); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	q, _ := query.From("sessions").Build()

	count, err := m.Count(context.Background(), q)
	if err != nil || count != 1 {
		t.Fatalf("count before expiry = %d, %v, want 1", count, err)
	}

	now = now.Add(2 * time.Minute)
	count, err = m.Count(context.Background(), q)
	if err != nil || count != 0 {
		t.Fatalf("count after expiry = %d, %v, want 0", count, err)
	}
}

func TestManager_Closed(t *testing.T) {
	m := NewManager(nil)
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := m.Insert(context.Background(), newDoc("c"), 0); !errors.Is(err, manager.ErrClosed) {
		t.Fatalf("Insert() error = %v, want ErrClosed", err)
	}
	if _, err := m.Select(context.Background(), query.Query{Collection: "c"}); !errors.Is(err, manager.ErrClosed) {
		t.Fatalf("Select() error = %v, want ErrClosed", err)
	}
}

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{pattern: "Ada", s: "Ada", want: true},
		{pattern: "Ada", s: "Adam", want: false},
		{pattern: "Ada%", s: "Adam", want: true},
		{pattern: "%da%", s: "Adam", want: true},
		{pattern: "%dam", s: "Adam", want: true},
		{pattern: "%x%", s: "Adam", want: false},
		{pattern: "%", s: "anything", want: true},
		{pattern: "A%m", s: "Adam", want: true},
		{pattern: "A%m", s: "Ada", want: false},
	}
	for _, tt := range tests {
		if got := likeMatch(tt.pattern, tt.s); got != tt.want {
			t.Errorf("likeMatch(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
