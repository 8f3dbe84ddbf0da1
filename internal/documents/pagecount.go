package documents

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disablePDFConfigDir sync.Once

// countPDFPages reads the page count from the document catalog. Upload
// treats failures as unknown, the extraction pipeline decides whether the
// file is usable.
func countPDFPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("count pdf pages: %v", r)
		}
	}()
	disablePDFConfigDir.Do(func() {
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

func isPDF(mimeType, fileName string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return strings.EqualFold(path.Ext(fileName), ".pdf")
}
