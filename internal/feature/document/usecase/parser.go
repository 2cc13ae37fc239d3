// Package usecase はdocumentフィーチャー（アップロード資料からのテキスト抽出）を実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxDocumentSize はドキュメント1件あたりの最大サイズ（20MB）です。
const MaxDocumentSize = 20 * 1024 * 1024

var (
	// ErrUnsupportedFileType は対応していない拡張子のファイルが渡されたことを示します。
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrEmptyDocument は内容が空のファイルが渡されたことを示します。
	ErrEmptyDocument = errors.New("document is empty")
	// ErrDocumentTooLarge はファイルサイズが上限を超えていることを示します。
	ErrDocumentTooLarge = errors.New("document size exceeds maximum")
	// ErrInvalidEncoding はテキストファイルがUTF-8として不正であることを示します。
	ErrInvalidEncoding = errors.New("text file is not valid UTF-8")
)

// PDFTextExtractor はPDFからテキストを抽出するインターフェースです（OCR）。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PDFTextExtractor interface {
	ExtractPDFText(ctx context.Context, data []byte) (string, error)
}

// Parser はファイル拡張子に応じてドキュメントからテキストを抽出します。
type Parser struct {
	pdf PDFTextExtractor
}

// NewParser はParserの新しいインスタンスを生成します。
func NewParser(pdf PDFTextExtractor) *Parser {
	return &Parser{pdf: pdf}
}

// ParseFile はパスのファイルを読み込み、テキストを返します。
// 拡張子はファイルを開く前に検証します。
func (p *Parser) ParseFile(ctx context.Context, path string) (string, error) {
	if _, err := fileKind(path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxDocumentSize {
		return "", fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, MaxDocumentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return p.Parse(ctx, filepath.Base(path), data)
}

// Parse はファイル名の拡張子に応じてdataからテキストを抽出します。
func (p *Parser) Parse(ctx context.Context, filename string, data []byte) (string, error) {
	kind, err := fileKind(filename)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}
	if len(data) > MaxDocumentSize {
		return "", fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, MaxDocumentSize)
	}

	switch kind {
	case ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s", ErrInvalidEncoding, filename)
		}
		return string(data), nil
	default:
		slog.Info("PDFを検出、OCRでテキストを抽出します", "file", filename)
		text, err := p.pdf.ExtractPDFText(ctx, data)
		if err != nil {
			return "", fmt.Errorf("pdf text extraction failed for %q: %w", filename, err)
		}
		slog.Info("PDFの処理が完了", "file", filename, "chars", utf8.RuneCountInString(text))
		return text, nil
	}
}

// fileKind は小文字化した拡張子を返し、未対応の場合はErrUnsupportedFileTypeを返します。
func fileKind(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".pdf":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(name))
	}
}
