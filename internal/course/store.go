package course

import "context"

type Store interface {
	CreateCategory(ctx context.Context, c Category) (Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context, activeOnly bool) ([]Category, error)

	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error) // with modules and lessons
	UpdateCourse(ctx context.Context, c Course) (Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	ListCourses(ctx context.Context, o ListOpts) ([]Course, int, error)

	ListModules(ctx context.Context, courseID int64) ([]Module, error)
	GetModule(ctx context.Context, courseID, id int64) (Module, error)
	CreateModule(ctx context.Context, courseID int64, m Module) (Module, error)
	UpdateModule(ctx context.Context, courseID int64, m Module) (Module, error)
	DeleteModule(ctx context.Context, courseID, id int64) error

	ListLessons(ctx context.Context, moduleID int64) ([]Lesson, error)
	GetLesson(ctx context.Context, moduleID, id int64) (Lesson, error)
	CreateLesson(ctx context.Context, moduleID int64, l Lesson) (Lesson, error)
	UpdateLesson(ctx context.Context, moduleID int64, l Lesson) (Lesson, error)
	DeleteLesson(ctx context.Context, moduleID, id int64) error
}

var _ Store = (*SQLStore)(nil)
