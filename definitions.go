package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// DefaultDefinitions returns the built-in permission catalog. Applications
// embedding the engine typically seed this at migration time and extend it
// with their own modules.
func DefaultDefinitions() []PermissionDefinition {
	return []PermissionDefinition{
		// admin
		{Key: PermissionManage, Module: "admin", Resource: "permissions", Action: "manage",
			Label: "Manage permissions", Description: "Create and edit bundles, overrides, and assignments", IsDelegatable: false},
		{Key: PermissionDelegate, Module: "admin", Resource: "permissions", Action: "delegate",
			Label: "Delegate permissions", Description: "Pass held permissions on to other members", IsDelegatable: false},
		{Key: "admin.audit.read", Module: "admin", Resource: "audit", Action: "read",
			Label: "Read audit log", IsDelegatable: false},

		// finance
		{Key: "finance.invoice.read", Module: "finance", Resource: "invoice", Action: "read",
			Label: "View invoices", IsDelegatable: true},
		{Key: "finance.invoice.create", Module: "finance", Resource: "invoice", Action: "create",
			Label: "Create invoices", IsDelegatable: true},
		{Key: "finance.invoice.delete", Module: "finance", Resource: "invoice", Action: "delete",
			Label: "Delete invoices", IsDelegatable: false},
		{Key: "finance.payment.create", Module: "finance", Resource: "payment", Action: "create",
			Label: "Record payments", IsDelegatable: true},

		// veterinary
		{Key: "vet.treatment.read", Module: "vet", Resource: "treatment", Action: "read",
			Label: "View treatments", IsDelegatable: true},
		{Key: "vet.treatment.create", Module: "vet", Resource: "treatment", Action: "create",
			Label: "Record treatments", IsDelegatable: true},
		{Key: "vet.medication.create", Module: "vet", Resource: "medication", Action: "create",
			Label: "Record medication", IsDelegatable: true},

		// laboratory
		{Key: "lab.sample.read", Module: "lab", Resource: "sample", Action: "read",
			Label: "View lab samples", IsDelegatable: true},
		{Key: "lab.sample.create", Module: "lab", Resource: "sample", Action: "create",
			Label: "Register lab samples", IsDelegatable: true},
		{Key: "lab.result.create", Module: "lab", Resource: "result", Action: "create",
			Label: "Enter lab results", IsDelegatable: true},

		// breeding
		{Key: "breeding.record.read", Module: "breeding", Resource: "record", Action: "read",
			Label: "View breeding records", IsDelegatable: true},
		{Key: "breeding.record.create", Module: "breeding", Resource: "record", Action: "create",
			Label: "Create breeding records", IsDelegatable: true},

		// booking
		{Key: "booking.schedule.read", Module: "booking", Resource: "schedule", Action: "read",
			Label: "View schedules", IsDelegatable: true},
		{Key: "booking.schedule.create", Module: "booking", Resource: "schedule", Action: "create",
			Label: "Create bookings", IsDelegatable: true},
	}
}

// SeedDefinitions upserts permission definitions into the store. Intended to
// run right after migrations: definitions are created by system deployment,
// never by end users. Re-running with the same catalog is a no-op apart from
// refreshed display metadata.
func SeedDefinitions(ctx context.Context, db dbkit.IDB, defs []PermissionDefinition) error {
	for i := range defs {
		if err := ValidateKey(defs[i].Key); err != nil {
			return err
		}
	}

	for i := range defs {
		result, err := db.NewInsert().
			Model(&defs[i]).
			On("CONFLICT (key) DO UPDATE").
			Set("module = EXCLUDED.module").
			Set("resource = EXCLUDED.resource").
			Set("action = EXCLUDED.action").
			Set("label = EXCLUDED.label").
			Set("description = EXCLUDED.description").
			Set("is_delegatable = EXCLUDED.is_delegatable").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "SeedDefinitions").Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to seed permission definition").WithKey(defs[i].Key)
		}
	}

	return nil
}
