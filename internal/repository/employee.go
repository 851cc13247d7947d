package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/hrdtools/employee-importer/internal/common"
	"github.com/hrdtools/employee-importer/internal/entity"
)

var employeesTable = goqu.T("employees")

type EmployeeRepository interface {
	// Insert persists one employee row. Rows are only ever created, never
	// updated or deleted.
	Insert(ctx context.Context, e *entity.Employee) error
	CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
	// List returns a page of employees ordered by internal id DESC, plus the
	// total count across all jobs.
	List(ctx context.Context, page, limit int) ([]*entity.Employee, int64, error)
}

type employeeRepo struct {
	db  *goqu.Database
	log *slog.Logger
}

func NewEmployeeRepository(s *Store, log *slog.Logger) EmployeeRepository {
	return &employeeRepo{db: s.DB, log: log}
}

type employeeRow struct {
	ID           int64  `db:"id"`
	Nama         string `db:"nama"`
	NIK          string `db:"nik"`
	JenisKelamin string `db:"jenis_kelamin"`
	Alamat       string `db:"alamat"`
	Divisi       string `db:"divisi"`
	Jabatan      string `db:"jabatan"`
	JobID        string `db:"job_id"`
}

func (r *employeeRepo) Insert(ctx context.Context, e *entity.Employee) error {
	_, err := r.db.Insert(employeesTable).Prepared(true).Rows(goqu.Record{
		"nama":          e.Nama,
		"nik":           e.NIK,
		"jenis_kelamin": e.JenisKelamin,
		"alamat":        e.Alamat,
		"divisi":        e.Divisi,
		"jabatan":       e.Jabatan,
		"job_id":        e.JobID.String(),
		"created_at":    time.Now().UTC(),
	}).Executor().ExecContext(ctx)
	if err != nil {
		r.log.Error("employee insert failed", "job_id", e.JobID, "err", err)
		return common.WrapError(err, "insert employee")
	}
	return nil
}

func (r *employeeRepo) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	count, err := r.db.From(employeesTable).Prepared(true).
		Where(goqu.C("job_id").Eq(jobID.String())).
		CountContext(ctx)
	if err != nil {
		r.log.Error("employee count failed", "job_id", jobID, "err", err)
		return 0, common.WrapError(err, "count employees")
	}
	return count, nil
}

func (r *employeeRepo) List(ctx context.Context, page, limit int) ([]*entity.Employee, int64, error) {
	if page < 1 || limit < 1 {
		return nil, 0, common.ErrInvalidInput
	}

	total, err := r.db.From(employeesTable).Prepared(true).CountContext(ctx)
	if err != nil {
		r.log.Error("employee total count failed", "err", err)
		return nil, 0, common.WrapError(err, "count employees")
	}

	offset := (page - 1) * limit
	var rows []employeeRow
	err = r.db.From(employeesTable).Prepared(true).
		Select("id", "nama", "nik", "jenis_kelamin", "alamat", "divisi", "jabatan", "job_id").
		Order(goqu.C("id").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		r.log.Error("employee list failed", "page", page, "limit", limit, "err", err)
		return nil, 0, common.WrapError(err, "list employees")
	}

	employees := make([]*entity.Employee, 0, len(rows))
	for _, row := range rows {
		jobID, err := uuid.Parse(row.JobID)
		if err != nil {
			return nil, 0, common.WrapError(err, "parse employee job id")
		}
		employees = append(employees, &entity.Employee{
			ID:           row.ID,
			Nama:         row.Nama,
			NIK:          row.NIK,
			JenisKelamin: row.JenisKelamin,
			Alamat:       row.Alamat,
			Divisi:       row.Divisi,
			Jabatan:      row.Jabatan,
			JobID:        jobID,
		})
	}
	return employees, total, nil
}
