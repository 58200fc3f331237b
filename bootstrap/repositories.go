package bootstrap

import (
	"reasoning_backend/platform/database"
	"reasoning_backend/repository"
)

type Repositories struct {
	RunRepository repository.RunRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		RunRepository: repository.NewRunRepository(db.GetDatabase()),
	}
}
