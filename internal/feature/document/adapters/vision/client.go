// Package vision はGoogle Cloud Vision APIを使用したPDFテキスト抽出（OCR）クライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"strings"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"analyst_backend/internal/feature/document/usecase"
)

const pdfMimeType = "application/pdf"

// VisionPDFExtractor はGoogle Cloud Vision APIのDOCUMENT_TEXT_DETECTIONでPDFのテキストを抽出します。
type VisionPDFExtractor struct {
	client *gvision.ImageAnnotatorClient
}

// VisionPDFExtractorがPDFTextExtractorを実装していることをコンパイル時に検証します。
var _ usecase.PDFTextExtractor = (*VisionPDFExtractor)(nil)

// NewVisionPDFExtractor はADCを使用してVisionPDFExtractorの新しいインスタンスを生成します。
// quotaProjectが指定された場合、そのプロジェクトのクォータで課金されます。
func NewVisionPDFExtractor(ctx context.Context, quotaProject string) (*VisionPDFExtractor, error) {
	var opts []option.ClientOption
	if quotaProject != "" {
		opts = append(opts, option.WithQuotaProject(quotaProject))
	}
	client, err := gvision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionPDFExtractor{client: client}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionPDFExtractor) Close() error {
	return v.client.Close()
}

// ExtractPDFText はPDFのバイト列からページごとのテキストを抽出して結合します。
func (v *VisionPDFExtractor) ExtractPDFText(ctx context.Context, data []byte) (string, error) {
	resp, err := v.client.BatchAnnotateFiles(ctx, NewPDFRequest(data))
	if err != nil {
		return "", fmt.Errorf("vision API request failed: %w", err)
	}
	return CollectText(resp)
}

// NewPDFRequest はPDFのテキスト検出リクエストを組み立てます。
func NewPDFRequest(data []byte) *visionpb.BatchAnnotateFilesRequest {
	return &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{Content: data, MimeType: pdfMimeType},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}
}

// CollectText はレスポンスの各ページのテキストを改行付きで結合します。
func CollectText(resp *visionpb.BatchAnnotateFilesResponse) (string, error) {
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}

	file := resp.GetResponses()[0]
	if file.GetError() != nil {
		return "", fmt.Errorf("vision API error: %s", file.GetError().GetMessage())
	}

	var b strings.Builder
	for _, page := range file.GetResponses() {
		if page.GetError() != nil {
			return "", fmt.Errorf("vision API error: %s", page.GetError().GetMessage())
		}
		b.WriteString(page.GetFullTextAnnotation().GetText())
		b.WriteString("\n")
	}
	return b.String(), nil
}
