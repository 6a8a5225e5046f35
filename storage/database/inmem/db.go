// Package inmemdb provides map-backed repositories for tests and local dev.
package inmemdb

import (
	"sync"

	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
)

type DB struct {
	user     *userTable
	category *categoryTable
	course   *courseTable
	upload   *uploadTable
}

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		category: &categoryTable{table: make(map[string]*category.Category)},
		course: &courseTable{
			table:    make(map[string]*course.Course),
			sections: make(map[string]*course.Section),
		},
		upload: &uploadTable{table: make(map[string]*upload.Record)},
	}
}

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	categoryTable struct {
		mutex sync.RWMutex
		table map[string]*category.Category
	}

	courseTable struct {
		mutex    sync.RWMutex
		table    map[string]*course.Course
		sections map[string]*course.Section
	}

	uploadTable struct {
		mutex sync.RWMutex
		table map[string]*upload.Record
	}
)
