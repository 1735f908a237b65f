package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// 支持的导出格式
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
	ExportYAML = "yaml"
)

// ExportContentType 返回格式对应的 MIME 类型与文件扩展名
func ExportContentType(format string) (string, string, error) {
	switch NormalizeExportFormat(format) {
	case ExportCSV:
		return "text/csv", "csv", nil
	case ExportJSON:
		return "application/json", "json", nil
	case ExportYAML:
		return "application/yaml", "yaml", nil
	default:
		return "", "", fmt.Errorf("unsupported export format %q", format)
	}
}

// NormalizeExportFormat 规范化格式名，空值视为 csv
func NormalizeExportFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return ExportCSV
	case "yml":
		return ExportYAML
	default:
		return format
	}
}

// WriteExport 把导出行写成指定格式
func WriteExport(w io.Writer, rows []ExportRow, format string) error {
	switch NormalizeExportFormat(format) {
	case ExportCSV:
		return writeCSV(w, rows)
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case ExportYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func writeCSV(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"name", "date", "completed"}); err != nil {
		return err
	}
	for _, row := range rows {
		completed := ""
		if row.Completed != nil {
			completed = strconv.FormatBool(*row.Completed)
		}
		if err := writer.Write([]string{row.Habit, row.Date, completed}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
