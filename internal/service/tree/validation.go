package tree

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"sortabletree/internal/config"
	"sortabletree/internal/domain"
	"sortabletree/internal/domain/models"
	treeSvc "sortabletree/internal/domain/services/tree"
)

var positionRule = validation.In(models.PositionBefore, models.PositionAfter).
	Error("must be before or after")

// validateAddRequest validates a node creation request
func validateAddRequest(req *treeSvc.AddItemRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ParentID, validation.Min(int64(0))),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxTitleLength),
		),
		validation.Field(&req.Position, positionRule),
	)
}

// validateMoveRequest validates a reparent request
func validateMoveRequest(req *treeSvc.MoveRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.NewParentID, validation.Min(int64(0))),
		validation.Field(&req.Position, positionRule),
		validation.Field(&req.TargetID, validation.By(func(value any) error {
			if target, _ := value.(*int64); target != nil && *target == req.ID {
				return errors.New("cannot position a node relative to itself")
			}
			return nil
		})),
	)
}

// validateUpdateRequest validates a partial attribute update
func validateUpdateRequest(req *treeSvc.UpdateAttributesRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxTitleLength),
		),
	)
}

// validatePlacement checks the level/parent invariant of node against its
// parent (nil for a top-level node)
func validatePlacement(node *models.Node, parent *models.Node) error {
	wantLevel, wantParent := 0, models.RootID
	if parent != nil {
		wantLevel, wantParent = parent.Level+1, parent.ID
	}
	return validation.ValidateStruct(node,
		validation.Field(&node.ParentID, validation.By(func(value any) error {
			parentID := value.(int64)
			if parentID == node.ID && node.ID != models.RootID {
				return errors.New("a node cannot be its own parent")
			}
			if parentID != wantParent {
				return fmt.Errorf("must be %d", wantParent)
			}
			return nil
		})),
		validation.Field(&node.Level, validation.By(func(value any) error {
			if value.(int) != wantLevel {
				return fmt.Errorf("must be %d", wantLevel)
			}
			return nil
		})),
	)
}

// invalid wraps an ozzo error as a domain validation error
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &domain.ValidationError{Message: err.Error()}
}
