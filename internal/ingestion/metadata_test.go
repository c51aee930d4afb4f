package ingestion

import "testing"

func TestInferTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "underscores", file: "cloud_computing.txt", want: "Cloud Computing"},
		{name: "mixed separators", file: "cloud_computing-basics.txt", want: "Cloud Computing Basics"},
		{name: "nested path", file: "data/documents/iaas.txt", want: "Iaas"},
		{name: "no extension", file: "README", want: "README"},
		{name: "unicode", file: "école_numérique.txt", want: "École Numérique"},
		{name: "only separators", file: "__.txt", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := InferTitle(tc.file); got != tc.want {
				t.Errorf("InferTitle(%q): want %q, got %q", tc.file, tc.want, got)
			}
		})
	}
}

func TestChunkMetadata(t *testing.T) {
	t.Parallel()
	m := chunkMetadata("edge_networks.txt", 2, "Edge nodes sit close to users")

	want := map[string]string{
		MetaText:       "Edge nodes sit close to users",
		MetaSource:     "edge_networks.txt",
		MetaTitle:      "Edge Networks",
		MetaChunkIndex: "2",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("metadata[%q]: want %q, got %q", k, v, m[k])
		}
	}
	if len(m) != len(want) {
		t.Errorf("want %d keys, got %d", len(want), len(m))
	}
}
