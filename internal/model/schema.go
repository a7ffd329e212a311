package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn 必需列缺失（配合 errors.Is 使用）
var ErrMissingColumn = errors.New("missing required column")

// MissingColumnError 一次性列出全部缺失的逻辑字段
type MissingColumnError struct {
	Fields []Field
}

func (e *MissingColumnError) Error() string {
	labels := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		labels = append(labels, f.Label())
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(labels, ", "))
}

// Is 支持 errors.Is(err, ErrMissingColumn)
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Schema 逻辑字段到实际列的解析结果，只在加载时构建一次
type Schema struct {
	Columns map[Field]string `json:"columns"` // 逻辑字段 → 实际列名
	Index   map[Field]int    `json:"-"`       // 逻辑字段 → 列索引

	// Ambiguities 同一字段有多个表头可匹配时的全部候选（按别名顺序，首个为采用值）
	Ambiguities map[Field][]string `json:"ambiguities,omitempty"`
}

// NewSchema 创建空 Schema
func NewSchema() *Schema {
	return &Schema{
		Columns:     make(map[Field]string),
		Index:       make(map[Field]int),
		Ambiguities: make(map[Field][]string),
	}
}

// Has 字段是否已解析；派生字段随日期列一起可用
func (s *Schema) Has(f Field) bool {
	if s == nil {
		return false
	}
	if f.IsDerived() {
		f = FieldDate
	}
	_, ok := s.Columns[f]
	return ok
}

// Column 获取字段对应的实际列名
func (s *Schema) Column(f Field) (string, bool) {
	if s == nil {
		return "", false
	}
	name, ok := s.Columns[f]
	return name, ok
}

// Require 校验字段全部可用，否则返回 *MissingColumnError
func (s *Schema) Require(fields ...Field) error {
	var missing []Field
	seen := make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		if f.IsDerived() {
			f = FieldDate
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Fields: missing}
	}
	return nil
}
