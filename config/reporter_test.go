package config

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	r, err := (&ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "issue.html")
	if err := os.WriteFile(src, []byte("<main>source</main>"), 0644); err != nil {
		t.Fatal(err)
	}
	stored := filepath.Join(t.TempDir(), "stored.log")
	if err := os.WriteFile(stored, []byte("log line"), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("final.log", stored)
	if err := r.StoreCopy("source", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	r.StoreData("issue.email.html", []byte("<table></table>"))

	// source changes after copy was taken
	if err := os.WriteFile(src, []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}

	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if got := files["final.log"]; got != "log line" {
		t.Errorf("final.log = %q", got)
	}
	if got := files["issue.email.html"]; got != "<table></table>" {
		t.Errorf("issue.email.html = %q", got)
	}
	if got := files["source"]; got != "<main>source</main>" {
		t.Errorf("source = %q, want copy taken at StoreCopy time", got)
	}
	manifest := files["MANIFEST"]
	for _, n := range []string{"final.log", "issue.email.html", "source"} {
		if !strings.Contains(manifest, n) {
			t.Errorf("MANIFEST lacks %s:\n%s", n, manifest)
		}
	}
}

func TestReport_StoreCopyDirectory(t *testing.T) {
	r := newTestReport(t)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "a.html"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := r.StoreCopy("input", dir); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	name := r.Name()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, name)
	if got := files["input/nested/a.html"]; got != "a" {
		t.Errorf("input/nested/a.html = %q, archive: %v", got, files)
	}
}

func TestReport_CloseRemovesCopies(t *testing.T) {
	r := newTestReport(t)

	src := filepath.Join(t.TempDir(), "issue.html")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.StoreCopy("source", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}

	temp := r.entries["source"].temp
	if temp == "" {
		t.Fatal("StoreCopy() did not record temporary copy")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		os.RemoveAll(temp)
		t.Errorf("temporary copy %s was not removed", temp)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("original file should not be removed: %v", err)
	}
}

func TestReport_VersionedNames(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	r.StoreData("styles.txt", []byte("1"))
	r.StoreData("styles.txt", []byte("2"))
	r.StoreData("styles.txt", []byte("3"))

	if len(r.entries) != 3 {
		t.Errorf("entries = %d, want 3", len(r.entries))
	}
	if string(r.entries["styles.txt"].data) != "1" {
		t.Errorf("first entry should keep requested name")
	}
}

func TestReport_StoreConflictPanics(t *testing.T) {
	r := newTestReport(t)
	defer r.Close()

	r.Store("final.log", "/tmp/a.log")
	r.Store("final.log", "/tmp/a.log") // same path is fine

	defer func() {
		if recover() == nil {
			t.Error("Store() with different path should panic")
		}
	}()
	r.Store("final.log", "/tmp/b.log")
}

func TestReport_Concurrent(t *testing.T) {
	r := newTestReport(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.StoreData(fmt.Sprintf("doc-%d.email.html", i), []byte("x"))
			r.StoreData("shared.txt", []byte("y"))
		}()
	}
	wg.Wait()

	if len(r.entries) != 32 {
		t.Errorf("entries = %d, want 32", len(r.entries))
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", []byte("b"))
	if err := r.StoreCopy("a", "/nonexistent"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name on nil report = %q", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
