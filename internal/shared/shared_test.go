package shared

import (
	"reflect"
	"testing"
)

func TestChunks(t *testing.T) {
	tc := []struct {
		name string
		ids  []string
		n    int
		want [][]string
	}{
		{
			name: "splits into full and partial batches",
			ids:  []string{"a", "b", "c", "d", "e"},
			n:    2,
			want: [][]string{{"a", "b"}, {"c", "d"}, {"e"}},
		},
		{
			name: "single batch when under the limit",
			ids:  []string{"a", "b"},
			n:    100,
			want: [][]string{{"a", "b"}},
		},
		{
			name: "exact multiple",
			ids:  []string{"a", "b", "c", "d"},
			n:    2,
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{name: "empty input", ids: nil, n: 2, want: nil},
		{name: "non-positive size", ids: []string{"a"}, n: 0, want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunks(tt.ids, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Chunks(%v, %d) = %v, want %v", tt.ids, tt.n, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "Workout", "workout"},
		{"spaces become underscores", "Road Trip 2024", "road_trip_2024"},
		{"path separators", "mixes/summer", "mixes_summer"},
		{"drops punctuation", "Mom's Favorites!", "moms_favorites"},
		{"keeps dots and dashes", "top-40.hits", "top-40.hits"},
		{"trims surrounding space", "  Chill  ", "chill"},
		{"all-symbol name falls back", "???", "playlist"},
		{"empty name falls back", "", "playlist"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("GenerateID() returned the same value twice")
	}
	if len(a) != 36 {
		t.Errorf("GenerateID() length = %d, want 36", len(a))
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"tracks": 3}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(compact) != `{"tracks":3}` {
		t.Errorf("compact = %s, want %s", compact, `{"tracks":3}`)
	}

	indented, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(indented) != "{\n  \"tracks\": 3\n}" {
		t.Errorf("indented = %q", indented)
	}
}
