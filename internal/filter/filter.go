// Package filter 记录筛选：各维度内为集合匹配（OR），维度之间取交集（AND），空选择不限制。
package filter

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"rscboard/internal/model"
)

// ErrEmptyResult 筛选后无记录（可恢复，展示为空状态）
var ErrEmptyResult = errors.New("no data for the current selection")

// DateRange 日期闭区间，任一端为 nil 表示该端不限
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Options 筛选条件
type Options struct {
	Status       string    `json:"status"`
	Years        []int     `json:"years"`
	Regions      []string  `json:"regions"`
	Territories  []string  `json:"territories"`
	Managers     []string  `json:"managers"`
	Cities       []string  `json:"cities"`
	Stores       []string  `json:"stores"`
	Salespersons []string  `json:"salespersons"`
	Categories   []string  `json:"categories"`
	Models       []string  `json:"models"`
	LeadSources  []string  `json:"leadSources"`
	DateRange    DateRange `json:"dateRange"`
}

// IsEmpty 是否没有任何限制
func (o Options) IsEmpty() bool {
	return strings.TrimSpace(o.Status) == "" &&
		len(o.dimensionSets()) == 0 &&
		o.DateRange.From == nil && o.DateRange.To == nil
}

// Fields 返回筛选涉及的逻辑字段
func (o Options) Fields() []model.Field {
	fields := lo.Keys(o.dimensionSets())
	if strings.TrimSpace(o.Status) != "" {
		fields = append(fields, model.FieldStatus)
	}
	if o.DateRange.From != nil || o.DateRange.To != nil {
		fields = append(fields, model.FieldDate)
	}
	return fields
}

// dimensionSets 非空的维度选择，值已去除首尾空白
func (o Options) dimensionSets() map[model.Field]map[string]struct{} {
	sets := make(map[model.Field]map[string]struct{})
	add := func(f model.Field, values []string) {
		values = lo.Filter(lo.Map(values, func(v string, _ int) string {
			return strings.TrimSpace(v)
		}), func(v string, _ int) bool { return v != "" })
		if len(values) == 0 {
			return
		}
		sets[f] = lo.SliceToMap(values, func(v string) (string, struct{}) {
			return v, struct{}{}
		})
	}

	add(model.FieldYear, lo.Map(o.Years, func(y int, _ int) string { return strconv.Itoa(y) }))
	add(model.FieldRegion, o.Regions)
	add(model.FieldTerritory, o.Territories)
	add(model.FieldManager, o.Managers)
	add(model.FieldCity, o.Cities)
	add(model.FieldStore, o.Stores)
	add(model.FieldSalesperson, o.Salespersons)
	add(model.FieldCategory, o.Categories)
	add(model.FieldModel, o.Models)
	add(model.FieldLeadSource, o.LeadSources)
	return sets
}

// Apply 返回满足全部条件的新切片，不修改输入；结果为空时返回 ErrEmptyResult
func Apply(records []model.Record, opts Options) ([]model.Record, error) {
	status := strings.TrimSpace(opts.Status)
	sets := opts.dimensionSets()
	from, to := opts.DateRange.From, opts.DateRange.To

	out := lo.Filter(records, func(r model.Record, _ int) bool {
		if status != "" && strings.TrimSpace(r.Status) != status {
			return false
		}
		for f, set := range sets {
			v, ok := r.Dimension(f)
			if !ok {
				return false
			}
			if _, hit := set[strings.TrimSpace(v)]; !hit {
				return false
			}
		}
		if from != nil || to != nil {
			if !r.DateValid {
				return false
			}
			if from != nil && r.Date.Before(*from) {
				return false
			}
			if to != nil && r.Date.After(endOfDay(*to)) {
				return false
			}
		}
		return true
	})

	if len(out) == 0 {
		return out, ErrEmptyResult
	}
	return out, nil
}

// endOfDay 结束日期为纯日期时包含当天全部时刻
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	if t.Equal(time.Date(y, m, d, 0, 0, 0, 0, t.Location())) {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
