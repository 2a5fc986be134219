package in

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mapdirect/internal/modules/route/dto"
	routein "mapdirect/internal/modules/route/port/in"
	apperrors "mapdirect/internal/platform/errors"
)

type CLIHandler struct {
	usecase routein.Usecase
}

func NewCLIHandler(usecase routein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Plan parses "lat,lng" arguments and computes a route.
func (h CLIHandler) Plan(ctx context.Context, from, to string, vias []string, profileName string) (dto.PlanOutput, error) {
	start, err := ParsePoint(from)
	if err != nil {
		return dto.PlanOutput{}, fmt.Errorf("--from: %w", err)
	}
	end, err := ParsePoint(to)
	if err != nil {
		return dto.PlanOutput{}, fmt.Errorf("--to: %w", err)
	}
	points := make([]dto.Point, 0, len(vias))
	for _, raw := range vias {
		p, err := ParsePoint(raw)
		if err != nil {
			return dto.PlanOutput{}, fmt.Errorf("--via: %w", err)
		}
		points = append(points, p)
	}
	return h.usecase.Plan(ctx, dto.PlanInput{From: start, To: end, Vias: points, Profile: profileName})
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.SessionOutput, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) Profiles() []dto.ProfileOutput {
	return h.usecase.Profiles()
}

// ParsePoint reads a "lat,lng" pair.
func ParsePoint(raw string) (dto.Point, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 2 {
		return dto.Point{}, fmt.Errorf("%w: expected lat,lng, got %q", apperrors.ErrInvalidInput, raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return dto.Point{}, fmt.Errorf("%w: latitude %q", apperrors.ErrInvalidInput, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return dto.Point{}, fmt.Errorf("%w: longitude %q", apperrors.ErrInvalidInput, parts[1])
	}
	return dto.Point{Lat: lat, Lng: lng}, nil
}
