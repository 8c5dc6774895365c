// Package mocks provides hand-written mocks for the sweep use case interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
	"github.com/allisson/seedsweep/internal/trainer"
)

// MockSweepUseCase is a mock implementation of usecase.UseCase.
type MockSweepUseCase struct {
	mock.Mock
}

func (m *MockSweepUseCase) CreateSweep(ctx context.Context, sweep *sweepDomain.Sweep) error {
	args := m.Called(ctx, sweep)
	return args.Error(0)
}

func (m *MockSweepUseCase) ExecuteSweep(
	ctx context.Context,
	sweepID uuid.UUID,
	force bool,
) (*sweepUseCase.ExecutionReport, error) {
	args := m.Called(ctx, sweepID, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sweepUseCase.ExecutionReport), args.Error(1)
}

func (m *MockSweepUseCase) PlanSweep(sweep *sweepDomain.Sweep) []trainer.Invocation {
	args := m.Called(sweep)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]trainer.Invocation)
}

func (m *MockSweepUseCase) GetSweep(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sweepDomain.Sweep), args.Error(1)
}

func (m *MockSweepUseCase) ListSweeps(
	ctx context.Context,
	offset, limit int,
) ([]*sweepDomain.Sweep, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sweepDomain.Sweep), args.Error(1)
}

func (m *MockSweepUseCase) ListRuns(
	ctx context.Context,
	sweepID uuid.UUID,
	offset, limit int,
) ([]*sweepDomain.Run, error) {
	args := m.Called(ctx, sweepID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sweepDomain.Run), args.Error(1)
}
