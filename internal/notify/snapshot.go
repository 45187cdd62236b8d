package notify

import "evalnotify_backend/internal/smartsheet"

// BuildSnapshot maps returned cells onto a RowSnapshot using the configured
// column mappings. The first mapping matching a cell's column id wins;
// unmatched cells are ignored. Fields with no matching cell stay empty.
func BuildSnapshot(cells []smartsheet.Cell, columns ColumnMap) RowSnapshot {
	var snap RowSnapshot

	assign := map[int64]*string{}
	for _, fc := range columns.FieldColumns() {
		if _, taken := assign[fc.ColumnID]; taken {
			continue
		}
		assign[fc.ColumnID] = snap.fieldRef(fc.Field)
	}

	for _, cell := range cells {
		if target, ok := assign[cell.ColumnID]; ok && target != nil {
			*target = cell.StringValue()
		}
	}

	return snap
}

// Field returns the snapshot value for a field name, empty for unknown names.
func (s RowSnapshot) Field(name string) string {
	if ref := s.fieldRef(name); ref != nil {
		return *ref
	}
	return ""
}

func (s *RowSnapshot) fieldRef(name string) *string {
	switch name {
	case FieldEmail:
		return &s.Email
	case FieldFirstName:
		return &s.FirstName
	case FieldClientName:
		return &s.ClientName
	case FieldEvalTime:
		return &s.EvalTime
	case FieldEvalDate:
		return &s.EvalDate
	case FieldPearsonLink:
		return &s.PearsonLink
	case FieldZoomLink:
		return &s.ZoomLink
	case FieldTalogyLink:
		return &s.TalogyLink
	case FieldServiceType:
		return &s.ServiceType
	}
	return nil
}
