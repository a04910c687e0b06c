package models

// All returns every model managed by the schema, in creation order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Property{},
		&InspectionRequest{},
		&InspectionReport{},
		&StatusChange{},
		&Message{},
		&Complaint{},
		&Payment{},
		&LedgerEntry{},
		&AdminBalance{},
		&DeleteLog{},
		&StatusSnapshot{},
	}
}
