package aggregate

import (
	"github.com/crisp-platform/console-server/internal/models"
)

// Scope narrows a merged report collection to what the principal may
// see: department admins see only reports assigned to them, every
// other console role sees everything. Always a subset of the input;
// a nil principal scopes to nothing.
func Scope(reports []models.Report, principal *models.Principal) []models.Report {
	if principal == nil {
		return nil
	}
	if principal.Role != models.RoleDepartmentAdmin {
		return reports
	}

	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if r.AssignedToID == principal.ID {
			out = append(out, r)
		}
	}
	return out
}
