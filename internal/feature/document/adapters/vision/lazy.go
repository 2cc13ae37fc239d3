package vision

import (
	"context"
	"sync"

	"analyst_backend/internal/feature/document/usecase"
)

// LazyPDFExtractor は最初のPDF抽出時にVision APIクライアントを生成します。
// テキストファイルのみを扱う場合はGoogle Cloudの認証情報を必要としません。
type LazyPDFExtractor struct {
	quotaProject string
	newClient    func(ctx context.Context, quotaProject string) (usecase.PDFTextExtractor, func() error, error)

	mu     sync.Mutex
	inner  usecase.PDFTextExtractor
	closer func() error
}

var _ usecase.PDFTextExtractor = (*LazyPDFExtractor)(nil)

// NewLazyPDFExtractor はLazyPDFExtractorの新しいインスタンスを生成します。
func NewLazyPDFExtractor(quotaProject string) *LazyPDFExtractor {
	return &LazyPDFExtractor{
		quotaProject: quotaProject,
		newClient: func(ctx context.Context, quotaProject string) (usecase.PDFTextExtractor, func() error, error) {
			v, err := NewVisionPDFExtractor(ctx, quotaProject)
			if err != nil {
				return nil, nil, err
			}
			return v, v.Close, nil
		},
	}
}

// ExtractPDFText はクライアントを必要に応じて生成し、PDFのテキストを抽出します。
// 生成に失敗した場合は次回の呼び出しで再試行します。
func (l *LazyPDFExtractor) ExtractPDFText(ctx context.Context, data []byte) (string, error) {
	inner, err := l.client(ctx)
	if err != nil {
		return "", err
	}
	return inner.ExtractPDFText(ctx, data)
}

// Close は生成済みのクライアントを解放します。
func (l *LazyPDFExtractor) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer()
	l.inner, l.closer = nil, nil
	return err
}

func (l *LazyPDFExtractor) client(ctx context.Context) (usecase.PDFTextExtractor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return l.inner, nil
	}
	inner, closer, err := l.newClient(ctx, l.quotaProject)
	if err != nil {
		return nil, err
	}
	l.inner, l.closer = inner, closer
	return inner, nil
}
