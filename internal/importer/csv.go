package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fulfillment-service/internal/service"

	"github.com/shopspring/decimal"
)

// ParseProducts читает CSV с заголовком и возвращает классы товаров.
// Заголовки name/Name, price/Price, category/Category, остальные колонки
// игнорируются. Строки без имени пропускаются, нечитаемая цена считается нулём.
func ParseProducts(r io.Reader) ([]service.ProductClassInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	cols := indexHeader(header)
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("CSV header must contain a name column, got %v", header)
	}

	var out []service.ProductClassInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", line, err)
		}

		name := field(record, nameIdx)
		if name == "" {
			continue
		}
		in := service.ProductClassInput{Name: name, Price: decimal.Zero}
		if i, ok := cols["price"]; ok {
			if p, err := decimal.NewFromString(field(record, i)); err == nil && !p.IsNegative() {
				in.Price = p
			}
		}
		if i, ok := cols["category"]; ok {
			in.Category = field(record, i)
		}
		out = append(out, in)
	}
	return out, nil
}

// indexHeader сопоставляет имена колонок их позициям. Для дублей
// (name и Name) берётся первая по порядку в файле.
func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		switch key {
		case "name", "price", "category":
			if _, seen := cols[key]; !seen {
				cols[key] = i
			}
		}
	}
	return cols
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
