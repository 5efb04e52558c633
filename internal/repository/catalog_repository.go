package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

// CatalogRepository resolves courses and classrooms.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindCourse returns a non-deleted course.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT id, name, deleted_at FROM courses WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindClassroom returns a non-deleted classroom.
func (r *CatalogRepository) FindClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, `SELECT id, name, deleted_at FROM classrooms WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Directory groups the reference lookups used by scheduling services.
type Directory struct {
	Students *StudentRepository
	Teachers *TeacherRepository
	Catalog  *CatalogRepository
}

// NewDirectory wires the lookup repositories onto one handle.
func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{
		Students: NewStudentRepository(db),
		Teachers: NewTeacherRepository(db),
		Catalog:  NewCatalogRepository(db),
	}
}

// FindStudent delegates to the student repository.
func (d *Directory) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	return d.Students.FindByID(ctx, id)
}

// FindTeacher delegates to the teacher repository.
func (d *Directory) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	return d.Teachers.FindByID(ctx, id)
}

// FindCourse delegates to the catalog repository.
func (d *Directory) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	return d.Catalog.FindCourse(ctx, id)
}

// FindClassroom delegates to the catalog repository.
func (d *Directory) FindClassroom(ctx context.Context, id string) (*models.Classroom, error) {
	return d.Catalog.FindClassroom(ctx, id)
}
