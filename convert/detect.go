package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"mailc/archive"
)

// documentExts are extensions of files considered when walking directories
// and archives.
var documentExts = []string{".html", ".htm"}

// sniffLen is how much of the file is looked at when detecting its type.
const sniffLen = 8192

var htmlType types.Type

func init() {
	htmlType = filetype.AddType("html", "text/html")
	filetype.AddMatcher(htmlType, htmlMatcher)
}

// htmlMatcher recognizes UTF-8 (or ASCII compatible) HTML by its first
// markup construct.
func htmlMatcher(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
	buf = bytes.TrimLeft(buf, " \t\r\n\f")
	if len(buf) > 64 {
		buf = buf[:64]
	}
	buf = bytes.ToLower(buf)
	for _, prefix := range [][]byte{
		[]byte("<!doctype html"), []byte("<html"), []byte("<head"), []byte("<body"),
		[]byte("<main"), []byte("<meta"), []byte("<style"), []byte("<title"),
		[]byte("<div"), []byte("<table"), []byte("<section"), []byte("<!--"),
	} {
		if bytes.HasPrefix(buf, prefix) {
			return true
		}
	}
	return false
}

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUTF8:
		return "utf-8"
	case encUTF16BigEndian:
		return "utf-16be"
	case encUTF16LittleEndian:
		return "utf-16le"
	case encUTF32BigEndian:
		return "utf-32be"
	case encUTF32LittleEndian:
		return "utf-32le"
	}
	return "unknown"
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF looks for byte order mark. UTF-32 is checked first since its
// little endian mark starts with UTF-16 one.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader decoding BOM marked source to UTF-8. Unknown
// encoding is returned as is.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic(fmt.Sprintf("unsupported source encoding %d", enc))
}

// decodeDocument converts document to UTF-8 and returns name of the source
// encoding. Byte order mark wins over everything, then forced encoding,
// then HTML5 detection (meta charset prescan, UTF-8 validity, windows-1252).
func decodeDocument(data []byte, forced encoding.Encoding) (string, string, error) {
	if enc := detectUTF(data); enc != encUnknown {
		out, err := io.ReadAll(selectReader(bytes.NewReader(data), enc))
		if err != nil {
			return "", "", fmt.Errorf("unable to decode %s source: %w", enc, err)
		}
		return string(out), enc.String(), nil
	}

	var (
		enc  encoding.Encoding
		name string
	)
	if forced != nil {
		enc = forced
		if name, _ = ianaindex.IANA.Name(forced); name == "" {
			name = "forced"
		}
	} else {
		enc, name, _ = charset.DetermineEncoding(data, "text/html")
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("unable to decode %s source: %w", name, err)
	}
	return string(out), name, nil
}

// looksLikeDocument checks file header. BOM marked UTF-16/32 headers are
// decoded before matching.
func looksLikeDocument(header []byte) bool {
	if enc := detectUTF(header); enc != encUnknown && enc != encUTF8 {
		// truncated header may end in the middle of a code unit
		decoded, _ := io.ReadAll(selectReader(bytes.NewReader(header), enc))
		header = decoded
	}
	return filetype.IsType(header, htmlType)
}

func readHeader(r io.Reader) ([]byte, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return header[:n], nil
}

// isArchiveFile checks if file is zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(header, "zip"), nil
}

// isDocumentFile checks if file is HTML document we could compile. Both name
// and content must agree.
func isDocumentFile(path string) (bool, error) {
	if !archive.HasExt(path, documentExts) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return looksLikeDocument(header), nil
}

// isDocumentInArchive is isDocumentFile for archive entries.
func isDocumentInArchive(f *zip.File) (bool, error) {
	if !archive.HasExt(f.Name, documentExts) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	header, err := readHeader(r)
	if err != nil {
		return false, err
	}
	return looksLikeDocument(header), nil
}
