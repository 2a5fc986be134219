package in

import (
	"context"

	"mapdirect/internal/modules/route/dto"
)

type Usecase interface {
	Plan(ctx context.Context, input dto.PlanInput) (dto.PlanOutput, error)
	History(ctx context.Context, limit int) ([]dto.SessionOutput, error)
	Profiles() []dto.ProfileOutput
}
