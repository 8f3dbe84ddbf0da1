package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string    `json:"documentId"`
	FileName         string    `json:"fileName"`
	MimeType         string    `json:"mimeType"`
	SizeBytes        int64     `json:"sizeBytes"`
	PageCount        *int      `json:"pageCount,omitempty"`
	StorageKey       string    `json:"storageKey"`
	UploadedAt       time.Time `json:"uploadedAt"`
	ExtractionStatus string    `json:"extractionStatus"`
	FailureReason    *string   `json:"failureReason,omitempty"`
	Content          *string   `json:"content,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		FileName:         doc.FileName,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		PageCount:        doc.PageCount,
		StorageKey:       doc.StorageKey,
		UploadedAt:       doc.CreatedAt,
		ExtractionStatus: string(doc.ExtractionStatus),
		FailureReason:    doc.FailureReason,
	}
}

func toDetailResponse(doc Document) DocumentResponse {
	resp := toResponse(doc)
	resp.Content = doc.Content
	return resp
}
