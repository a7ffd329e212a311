package exporter

// ProgressEvent 导出进度：每写完一个工作表回调一次
type ProgressEvent struct {
	Sheet string
	Done  int
	Total int
}

// Percent 已完成百分比
func (e ProgressEvent) Percent() int {
	if e.Total <= 0 {
		return 100
	}
	return e.Done * 100 / e.Total
}

// sheetWritten 通知第 done 个工作表已写完；progress 为 nil 时忽略
func sheetWritten(progress func(ProgressEvent), sheet string, done, total int) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{Sheet: sheet, Done: done, Total: total})
}
