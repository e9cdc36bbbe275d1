package script

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/autoscript/pkg/fileutil"
)

// Suffix はスクリプトファイルの拡張子
const Suffix = ".auto"

// Source はスクリプトファイルを表す
type Source struct {
	FileName string // ファイル名
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ（変換前のバイト数）
	Encoding string // 検出したエンコーディング
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	fsys fs.FS
}

// NewLoader Loaderを作成（os.DirFS や embed.FS を渡す）
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Load は name のスクリプトを大文字小文字を無視して読み込む
func (l *Loader) Load(name string) (*Source, error) {
	data, actual, err := fileutil.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	content, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", actual, err)
	}

	return &Source{
		FileName: path.Base(actual),
		Content:  content,
		Size:     int64(len(data)),
		Encoding: enc,
	}, nil
}

// LoadAll は dir 直下のすべての .auto ファイルを名前順に読み込む
func (l *Loader) LoadAll(dir string) ([]*Source, error) {
	files, err := fileutil.FindBySuffix(l.fsys, dir, Suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no script files found in %s", dir)
	}

	sources := make([]*Source, 0, len(files))
	for _, f := range files {
		src, err := l.Load(f)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode はバイト列をUTF-8文字列に変換する。
// BOM があればそれに従い、BOM なしで正しいUTF-8ならそのまま、それ以外はShift-JISとみなす。
func Decode(data []byte) (content string, enc string, err error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		s, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
		return s, "utf-16le", err
	case bytes.HasPrefix(data, bomUTF16BE):
		s, err := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)
		return s, "utf-16be", err
	case utf8.Valid(data):
		return string(data), "utf-8", nil
	default:
		s, err := decodeWith(japanese.ShiftJIS, data)
		return s, "shift_jis", err
	}
}

// decodeWith は指定エンコーディングからUTF-8に変換
func decodeWith(e encoding.Encoding, data []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), e.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}
	return string(utf8Data), nil
}
