package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blaze-search/blaze/trigram"
)

func equalU32List(x, y []uint32) bool {
	if len(x) != len(y) {
		return false
	}
	for i, xi := range x {
		if xi != y[i] {
			return false
		}
	}
	return true
}

func buildTestIndex(t *testing.T, root string, records []FileRecord) (*Reader, string) {
	t.Helper()
	b := NewBuilder(root, 1700000000)
	for _, rec := range records {
		b.AddRecord(rec)
	}
	staged := b.Finish()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.blazeindex")
	if err := Write(path, staged, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { os.Remove(path) })
	return r, path
}

func fileRec(root, rel string, isDir bool) FileRecord {
	path := root + "/" + rel
	name := rel
	for j := len(rel) - 1; j >= 0; j-- {
		if rel[j] == '/' {
			name = rel[j+1:]
			break
		}
	}
	ext := ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			ext = name[i+1:]
			break
		}
		if name[i] == '/' {
			break
		}
	}
	return FileRecord{
		Path:     path,
		Name:     name,
		Size:     100,
		Modified: 1700000000,
		Created:  1700000000,
		Ext:      ext,
		IsDir:    isDir,
	}
}

func TestBuilderWriterReaderRoundTrip(t *testing.T) {
	root := "/home/u/project"
	records := []FileRecord{
		fileRec(root, "src", true),
		fileRec(root, "src/query.rs", false),
		fileRec(root, "target", true),
		fileRec(root, "target/debug", true),
		fileRec(root, "target/debug/q", false),
	}
	r, _ := buildTestIndex(t, root, records)

	if r.FileCount() != len(records) {
		t.Fatalf("FileCount = %d, want %d", r.FileCount(), len(records))
	}
	if r.RootPath() != root {
		t.Fatalf("RootPath = %q, want %q", r.RootPath(), root)
	}

	names := make(map[string]bool)
	for i := 0; i < r.FileCount(); i++ {
		names[r.Name(FileId(i))] = true
	}
	for _, want := range []string{"src", "query.rs", "target", "debug", "q"} {
		if !names[want] {
			t.Errorf("missing name %q among %v", want, names)
		}
	}
}

func TestExtensionPostings(t *testing.T) {
	root := "/r"
	records := []FileRecord{
		fileRec(root, "a.rs", false),
		fileRec(root, "b.rs", false),
		fileRec(root, "c.go", false),
	}
	r, _ := buildTestIndex(t, root, records)

	rsFiles := r.ExtPostings("rs")
	if len(rsFiles) != 2 {
		t.Fatalf("ExtPostings(rs) = %v, want 2 entries", rsFiles)
	}
	goFiles := r.ExtPostings("go")
	if len(goFiles) != 1 {
		t.Fatalf("ExtPostings(go) = %v, want 1 entry", goFiles)
	}
}

func TestFileTrigramPostingsExcludeDirsAndHidden(t *testing.T) {
	root := "/r"
	hidden := fileRec(root, ".secret", false)
	hidden.HiddenOS = true
	records := []FileRecord{
		fileRec(root, "query.rs", false),
		fileRec(root, "src", true),
		hidden,
	}
	r, _ := buildTestIndex(t, root, records)

	t3 := trigram.Pack('q', 'u', 'e')
	postings := r.QueryTrigram(t3)
	if len(postings) != 1 || postings[0] != 0 {
		t.Errorf("QueryTrigram('que') = %v, want [0]", postings)
	}

	// "src" is a directory: it must not appear in file trigram postings.
	srcTri := trigram.Pack('s', 'r', 'c')
	if got := r.QueryTrigram(srcTri); len(got) != 0 {
		t.Errorf("QueryTrigram('src') (file postings) = %v, want empty (dirs excluded)", got)
	}
	if got := r.QueryDirTrigram(srcTri); len(got) == 0 {
		t.Errorf("QueryDirTrigram('src') = empty, want the src directory")
	}
}

func TestReconstructPath(t *testing.T) {
	root := "/home/u/project"
	records := []FileRecord{
		fileRec(root, "src", true),
		fileRec(root, "src/commands", true),
		fileRec(root, "src/commands/query.rs", false),
	}
	r, _ := buildTestIndex(t, root, records)

	queryId := FileId(^uint32(0))
	for i := 0; i < r.FileCount(); i++ {
		if r.Name(FileId(i)) == "query.rs" {
			queryId = FileId(i)
		}
	}
	if queryId == FileId(^uint32(0)) {
		t.Fatal("query.rs not found")
	}
	got, err := r.ReconstructPath(queryId)
	if err != nil {
		t.Fatalf("ReconstructPath: %v", err)
	}
	want := root + "/src/commands/query.rs"
	if got != want {
		t.Errorf("ReconstructPath = %q, want %q", got, want)
	}
}

func TestHeaderCRCDetectsCorruption(t *testing.T) {
	root := "/r"
	_, path := buildTestIndex(t, root, []FileRecord{fileRec(root, "a.txt", false)})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[40] ^= 0xFF // corrupt a header reserved byte still covered by the CRC
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err != ErrCorrupt {
		t.Errorf("Open(corrupted) = %v, want ErrCorrupt", err)
	}
}

func TestNoiseFlagsOnDiskRoundTrip(t *testing.T) {
	root := "/home/u"
	records := []FileRecord{fileRec(root, "node_modules/pkg/index.js", false)}
	r, _ := buildTestIndex(t, root, records)
	if r.Noise(0)&NoiseBuildDir == 0 {
		t.Errorf("expected NoiseBuildDir to survive the round trip, got %v", r.Noise(0))
	}
}
