package entity

import (
	"time"

	"github.com/google/uuid"
)

// Employee represents one ingested employee row for data transfer between
// layers. Field names follow the source file's column headers.
type Employee struct {
	ID           int64     `json:"-"`
	Nama         string    `json:"nama"`
	NIK          string    `json:"nik"`
	JenisKelamin string    `json:"jenis_kelamin"`
	Alamat       string    `json:"alamat"`
	Divisi       string    `json:"divisi"`
	Jabatan      string    `json:"jabatan"`
	JobID        uuid.UUID `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Pagination describes a page of a listing response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}
