package service

import (
	"github.com/deppfellow/calculator-api/internal/lib/job"
	"github.com/deppfellow/calculator-api/internal/repository"
	"github.com/deppfellow/calculator-api/internal/server"
)

type Services struct {
	Calculator *CalculatorService
	Auth       *AuthService
	User       *UserService
	Job        *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	calculatorService := NewCalculatorService(s, repos)

	return &Services{
		Calculator: calculatorService,
		Auth:       NewAuthService(s),
		User:       NewUserService(s, calculatorService),
		Job:        s.Job,
	}, nil
}
