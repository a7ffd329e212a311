package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// 导入状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusSuccess    = "success"
	ImportStatusFailed     = "failed"
)

// ImportLog 导入日志
type ImportLog struct {
	ID           int64      `json:"id"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	FileHash     string     `json:"fileHash"`
	SheetName    string     `json:"sheetName"`
	Format       string     `json:"format"`
	DateMode     string     `json:"dateMode"`
	TotalRows    int        `json:"totalRows"`
	WorkingRows  int        `json:"workingRows"`
	DateFailures int        `json:"dateFailures"`
	OutOfRange   int        `json:"outOfRange"`
	Cached       bool       `json:"cached"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ImportOutcome 导入完成时回写的结果
type ImportOutcome struct {
	SheetName    string
	Format       string
	DateMode     string
	TotalRows    int
	WorkingRows  int
	DateFailures int
	OutOfRange   int
	Cached       bool
	Err          error
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?)
	`, filename, fileSize, fileHash, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新；Err 非空时记为失败
func (s *Store) FinishImportLog(id int64, out ImportOutcome) error {
	status, message := ImportStatusSuccess, ""
	if out.Err != nil {
		status, message = ImportStatusFailed, out.Err.Error()
	}
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			sheet_name = ?,
			format = ?,
			date_mode = ?,
			total_rows = ?,
			working_rows = ?,
			date_failures = ?,
			out_of_range = ?,
			cached = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, out.SheetName, out.Format, out.DateMode, out.TotalRows, out.WorkingRows,
		out.DateFailures, out.OutOfRange, out.Cached, status, message, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

const importLogColumns = `
	id, filename, file_size, file_hash, sheet_name, format, date_mode,
	total_rows, working_rows, date_failures, out_of_range, cached,
	status, error_message, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImportLog(row rowScanner) (*ImportLog, error) {
	var (
		it        ImportLog
		completed sql.NullTime
	)
	if err := row.Scan(
		&it.ID, &it.Filename, &it.FileSize, &it.FileHash, &it.SheetName, &it.Format, &it.DateMode,
		&it.TotalRows, &it.WorkingRows, &it.DateFailures, &it.OutOfRange, &it.Cached,
		&it.Status, &it.ErrorMessage, &it.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		it.CompletedAt = &t
	}
	return &it, nil
}

// GetImportLog 按 ID 查询
func (s *Store) GetImportLog(id int64) (*ImportLog, error) {
	it, err := scanImportLog(s.db.QueryRow(`SELECT `+importLogColumns+` FROM import_logs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("import log not found: %d", id)
		}
		return nil, fmt.Errorf("query import log failed: %w", err)
	}
	return it, nil
}

// LastImport 最近一次成功导入，没有时返回 nil
func (s *Store) LastImport() (*ImportLog, error) {
	it, err := scanImportLog(s.db.QueryRow(`
		SELECT ` + importLogColumns + ` FROM import_logs
		WHERE status = 'success'
		ORDER BY id DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query last import failed: %w", err)
	}
	return it, nil
}

// ListImportLogs 按时间倒序列出导入日志
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+importLogColumns+` FROM import_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := make([]ImportLog, 0)
	for rows.Next() {
		it, err := scanImportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

// CountImports 按状态统计导入次数
func (s *Store) CountImports() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(1) FROM import_logs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count imports failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan import count failed: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
