package convert

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

const sampleDocument = `<!DOCTYPE html><html><head><style>` +
	`.mkly-document { --accent: #e2725b; } .title { color: var(--accent); }` +
	`</style></head><body><main class="mkly-document"><h1 class="title">Привет</h1></main></body></html>`

func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("not a zip", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("valid zip file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "issues.dat")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("issue.html")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		f.Write([]byte(sampleDocument))
		w.Close()
		zipFile.Close()

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Error("isArchiveFile() = false, want true")
		}
	})

	t.Run("nonexistent", func(t *testing.T) {
		if _, err := isArchiveFile("/nonexistent/file.zip"); err == nil {
			t.Error("Expected error for non-existent file, got nil")
		}
	})
}

func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{name: "UTF-8 BOM", buf: []byte{0xEF, 0xBB, 0xBF, 0x00}, want: encUTF8},
		{name: "UTF-16 Big Endian BOM", buf: []byte{0xFE, 0xFF, 0x00, 0x00}, want: encUTF16BigEndian},
		{name: "UTF-16 Little Endian BOM", buf: []byte{0xFF, 0xFE, 0x01, 0x00}, want: encUTF16LittleEndian},
		{name: "UTF-32 Big Endian BOM", buf: []byte{0x00, 0x00, 0xFE, 0xFF}, want: encUTF32BigEndian},
		{name: "UTF-32 Little Endian BOM", buf: []byte{0xFF, 0xFE, 0x00, 0x00}, want: encUTF32LittleEndian},
		{name: "No BOM", buf: []byte{0x00, 0x01, 0x02, 0x03}, want: encUnknown},
		{name: "Short", buf: []byte{0xEF}, want: encUnknown},
		{name: "Empty", buf: nil, want: encUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTMLMatcher(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		want bool
	}{
		{name: "doctype", buf: "<!DOCTYPE html><html>", want: true},
		{name: "lowercase doctype", buf: "<!doctype html>", want: true},
		{name: "leading whitespace", buf: "\n\t  <html lang=\"en\">", want: true},
		{name: "fragment", buf: `<main class="mkly-document">`, want: true},
		{name: "style first", buf: "<style>p{}</style><main>", want: true},
		{name: "comment first", buf: "<!-- saved page --><html>", want: true},
		{name: "utf-8 bom", buf: "\xEF\xBB\xBF<html>", want: true},
		{name: "plain text", buf: "Hello, world", want: false},
		{name: "xml", buf: `<?xml version="1.0"?><FictionBook>`, want: false},
		{name: "empty", buf: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlMatcher([]byte(tt.buf)); got != tt.want {
				t.Errorf("htmlMatcher(%q) = %v, want %v", tt.buf, got, tt.want)
			}
		})
	}
}

func TestLooksLikeDocument_WideEncodings(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(sampleDocument)
	if err != nil {
		t.Fatal(err)
	}
	utf32be, err := utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder().String(sampleDocument)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data string
		cut  int
	}{
		{name: "utf-16le", data: utf16le, cut: 31},
		{name: "utf-32be", data: utf32be, cut: 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !looksLikeDocument([]byte(tt.data)) {
				t.Error("looksLikeDocument() = false, want true")
			}
			// header may be cut in the middle of a code unit
			if !looksLikeDocument([]byte(tt.data)[:tt.cut]) {
				t.Error("looksLikeDocument() on truncated header = false, want true")
			}
		})
	}
}

func TestIsDocumentFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    bool
	}{
		{name: "html document", file: "issue.html", content: sampleDocument, want: true},
		{name: "htm extension", file: "issue.HTM", content: sampleDocument, want: true},
		{name: "wrong extension", file: "issue.txt", content: sampleDocument, want: false},
		{name: "not html", file: "notes.html", content: "just some notes", want: false},
		{name: "empty", file: "empty.html", content: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}
			got, err := isDocumentFile(path)
			if err != nil {
				t.Fatalf("isDocumentFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isDocumentFile() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("nonexistent", func(t *testing.T) {
		if _, err := isDocumentFile("/nonexistent/file.html"); err == nil {
			t.Error("Expected error for non-existent file")
		}
	})
}

func TestIsDocumentInArchive(t *testing.T) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, e := range []struct{ name, content string }{
		{"issue.html", sampleDocument},
		{"logo.png", "\x89PNG"},
		{"readme.html", "plain text"},
	} {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(e.content))
	}
	w.Close()

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}

	want := []bool{true, false, false}
	for i, f := range r.File {
		got, err := isDocumentInArchive(f)
		if err != nil {
			t.Fatalf("isDocumentInArchive(%s) error = %v", f.Name, err)
		}
		if got != want[i] {
			t.Errorf("isDocumentInArchive(%s) = %v, want %v", f.Name, got, want[i])
		}
	}
}

func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()
	selectReader(bytes.NewReader([]byte("test")), srcEncoding(999))
}

func TestDecodeDocument(t *testing.T) {
	const text = "<main><p>Привет, мир</p></main>"
	withMeta := `<meta charset="windows-1251">` + text

	utf16be, _ := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(text)
	utf32le, _ := utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder().String(text)
	cp1251, _ := charmap.Windows1251.NewEncoder().String(withMeta)
	koi8, _ := charmap.KOI8R.NewEncoder().String(text)

	tests := []struct {
		name     string
		data     string
		forced   bool
		want     string
		wantName string
	}{
		{name: "plain utf-8", data: text, want: text, wantName: "utf-8"},
		{name: "utf-8 bom", data: "\xEF\xBB\xBF" + text, want: text, wantName: "utf-8"},
		{name: "utf-16be bom", data: utf16be, want: text, wantName: "utf-16be"},
		{name: "utf-32le bom", data: utf32le, want: text, wantName: "utf-32le"},
		{name: "meta charset", data: cp1251, want: withMeta, wantName: "windows-1251"},
		{name: "forced", data: koi8, forced: true, want: text, wantName: "KOI8-R"},
		{name: "forced does not override bom", data: "\xEF\xBB\xBF" + text, forced: true, want: text, wantName: "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var forced encoding.Encoding
			if tt.forced {
				forced = charmap.KOI8R
			}
			got, name, err := decodeDocument([]byte(tt.data), forced)
			if err != nil {
				t.Fatalf("decodeDocument() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeDocument() = %q, want %q", got, tt.want)
			}
			if !strings.EqualFold(name, tt.wantName) {
				t.Errorf("decodeDocument() charset = %q, want %q", name, tt.wantName)
			}
		})
	}
}
