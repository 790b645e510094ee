package formatter

import (
	"os"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-ru-analyzer/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(results []*model.AnalysisResult) error {
	data, err := sonic.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}
