package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deptflow/internal/db"
)

const dateLayout = "2006-01-02"

// now 可在测试中替换
var now = time.Now

// parseDay 解析 YYYY-MM-DD，空值表示今天
func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return db.NormalizeDate(now()), nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid habit id %q", value)
	}
	return uint(id), nil
}

// parseIDList 解析逗号分隔的 ID 列表，忽略空项
func parseIDList(values []string) ([]uint, error) {
	var ids []uint
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
